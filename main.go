package main

import (
	"github.com/opentrickler/trickle2go/cmd"
)

func main() {
	cmd.Execute()
}
