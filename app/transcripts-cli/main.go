package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(defaultOpener).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
