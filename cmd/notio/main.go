package main

import (
	"fmt"
	"os"
)

// main runs the notio CLI.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
