package main

import "ringcache/cmd"

func main() {
	cmd.Execute()
}
