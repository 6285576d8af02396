package main

import "github.com/liftedinit/tally/cmd/tally"

func main() {
	tally.Execute()
}
