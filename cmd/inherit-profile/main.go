// Package main provides the entry point for the inherit-profile CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Disk-MTH/inherit-profile/cmd/inherit-profile/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
