package main

import (
	"os"

	"github.com/talentscout/intake-assistant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
