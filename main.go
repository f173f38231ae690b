package main

import (
	"fmt"
	"os"

	"github.com/zeu5/miniblocks/benchmarks"
)

// main entry point to the environment tools and experiments
func main() {
	rootCommand := benchmarks.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
