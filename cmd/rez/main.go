// Command rez compiles and validates Rez interactive-fiction sources.
package main

import (
	"log"
	"os"

	"github.com/islemaster/rez/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := cli.RootCommand().Execute(); err != nil {
		log.Printf("rez: %v", err)
		return 1
	}
	return 0
}
