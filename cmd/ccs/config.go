package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/yeah705-lgtm/ccs-sub000/core/configdoc"
	"github.com/yeah705-lgtm/ccs-sub000/core/configstore"
	"github.com/yeah705-lgtm/ccs-sub000/core/migration"
)

func runConfig(arguments []string) int {
	if len(arguments) < 1 {
		printUsage()
		return exitInvalidInput
	}
	subcommand := arguments[0]

	flagSet := flag.NewFlagSet("config "+subcommand, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	var dirFlag string
	var jsonOutput bool
	var verbose bool
	flagSet.StringVar(&dirFlag, "dir", "", "configuration directory")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&verbose, "verbose", false, "log informational diagnostics")
	if err := flagSet.Parse(arguments[1:]); err != nil {
		printUsage()
		return exitInvalidInput
	}

	baseDir, err := configDir(dirFlag)
	if err != nil {
		return writeError(jsonOutput, err)
	}
	logger := newLogger(verbose)
	store := configstore.New(baseDir, logger)

	switch subcommand {
	case "path":
		fmt.Println(store.Path())
		return exitOK
	case "show":
		// Opportunistic legacy migration keeps old installs working without
		// a manual migrate invocation.
		migration.New(store, logger).AutoMigrate()
		return showConfig(store, jsonOutput)
	default:
		printUsage()
		return exitInvalidInput
	}
}

func showConfig(store *configstore.Store, jsonOutput bool) int {
	doc := store.LoadOrCreate()
	if jsonOutput {
		return writeJSONOutput(doc)
	}
	encoded, err := configdoc.Serialize(doc)
	if err != nil {
		return writeError(false, err)
	}
	fmt.Print(string(encoded))
	return exitOK
}
