package main

import (
	"fmt"
	"os"

	"github.com/AvivElectis/electisSpace-sub010/cmd/spacectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
