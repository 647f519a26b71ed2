package main

import (
	"flag"
	"fmt"
	"os"
	"wayfarer/internal/di"
	"wayfarer/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "./config.yaml", "path to the configuration file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "log to stdout in addition to files")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "wayfarer: %s\n", err)
		os.Exit(1)
	}
}
