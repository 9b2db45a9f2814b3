package main

import (
	"fmt"
	"os"

	"github.com/handiism/podcast-downloader/internal/config"
	"github.com/handiism/podcast-downloader/internal/tui"
)

func main() {
	settings := config.DefaultSettings()
	if path, err := config.DefaultConfigPath(); err == nil {
		if loaded, err := config.Load(path); err == nil {
			settings = loaded
		} else {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
