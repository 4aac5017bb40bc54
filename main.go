package main

import (
	"fmt"
	"os"

	"filex/cmd"
)

func main() {
	rt := &cmd.Runtime{}
	if err := cmd.NewRootCmd(rt).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
