package main

import (
	"fmt"
	"os"

	"github.com/pawanx64/File-Sharing-Backend/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
