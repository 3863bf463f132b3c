// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	pl_tui "github.com/neomantra/pointline/internal/tui"
)

///////////////////////////////////////////////////////////////////////////////

func main() {
	var config pl_tui.Config
	var showHelp bool

	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.StringVarP(&config.SilverRoot, "silver-root", "s", "", "Silver lakehouse root directory (or set 'POINTLINE_SILVER_ROOT' envvar)")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s [options]\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}

	if config.SilverRoot == "" {
		config.SilverRoot = os.Getenv("POINTLINE_SILVER_ROOT")
		if config.SilverRoot == "" {
			fmt.Fprintf(os.Stderr, "missing silver root, use --silver-root or set POINTLINE_SILVER_ROOT envvar\n")
			os.Exit(1)
		}
	}

	if err := pl_tui.Run(config); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
