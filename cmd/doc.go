// Package cmd implements the ringcache command line interface.
//
// The command tree:
//
//	ringcache serve    host one or more cache nodes in this process
//	ringcache kv       client operations (set, get, del, stats, health, perf)
//	ringcache ring     inspect key placement and load distribution
//	ringcache version  print the version
//
// Flags can be overridden through environment variables with the RINGCACHE_
// prefix; .env and .env.local files are loaded when present.
package cmd
