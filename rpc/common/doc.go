// Package common contains the pieces shared by the rpc client and server:
// the JSON wire structures of the node API, the server and client
// configuration structs with their pretty-printers, and the named-logger
// factory the rest of the system logs through.
package common
