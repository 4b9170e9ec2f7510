package main

import (
	"fmt"
	"os"

	"github.com/zeu5/rlpath/commands"
)

// main entry point to training, route replay and the route server
func main() {
	rootCommand := commands.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
