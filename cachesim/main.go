// Command cachesim runs a memory access trace through an L1 cache, an
// optional victim cache and an optional L2 cache and prints the statistics.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
