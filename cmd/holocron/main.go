package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one command line and releases the application afterwards,
// including when the command fails
func run(args []string) error {
	// HOLOCRON_* variables may come from a local .env file
	_ = godotenv.Load(".env")

	c := &cli{}
	root := RootCommand(c)
	root.SetArgs(args)

	err := root.Execute()
	if cerr := c.teardown(); err == nil {
		err = cerr
	}
	return err
}
