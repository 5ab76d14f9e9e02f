package ring

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"
)

// --------------------------------------------------------------------------
// Position Type
// --------------------------------------------------------------------------

// Position is a point in the 128-bit ring coordinate space. The zero value
// is the smallest position. Positions are compared as unsigned 128-bit
// integers (hi is the most significant half).
type Position struct {
	hi, lo uint64
}

// PositionOf maps an arbitrary string to its ring position.
//
// The full MD5 digest is interpreted as a big-endian 128-bit integer. MD5 is
// deterministic across processes and architectures, which is what makes
// client-side routing possible: every client derives the same position for
// the same key.
func PositionOf(key string) Position {
	sum := md5.Sum([]byte(key))
	return Position{
		hi: binary.BigEndian.Uint64(sum[0:8]),
		lo: binary.BigEndian.Uint64(sum[8:16]),
	}
}

// Less reports whether p is strictly smaller than q.
func (p Position) Less(q Position) bool {
	if p.hi != q.hi {
		return p.hi < q.hi
	}
	return p.lo < q.lo
}

// Cmp returns -1, 0 or +1 depending on whether p is smaller than, equal to
// or greater than q.
func (p Position) Cmp(q Position) int {
	switch {
	case p.Less(q):
		return -1
	case q.Less(p):
		return 1
	default:
		return 0
	}
}

// Dist returns the clockwise distance from q to p, wrapping modulo 2^128.
// Dist(p, p) is zero, so callers measuring a full circle must special-case
// the single-position ring themselves.
func (p Position) Dist(q Position) Position {
	lo := p.lo - q.lo
	hi := p.hi - q.hi
	if p.lo < q.lo { // borrow
		hi--
	}
	return Position{hi: hi, lo: lo}
}

// Fraction returns the position as a share of the full ring, in [0, 1).
// Used to turn arc lengths into load percentages; float64 precision is
// plenty for that purpose.
func (p Position) Fraction() float64 {
	const half = 64
	return float64(p.hi)/math.Exp2(half) + float64(p.lo)/math.Exp2(2*half)
}

// String renders the position as a 32-digit hex number.
func (p Position) String() string {
	return fmt.Sprintf("%016x%016x", p.hi, p.lo)
}
