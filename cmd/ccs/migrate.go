package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/yeah705-lgtm/ccs-sub000/core/configstore"
	"github.com/yeah705-lgtm/ccs-sub000/core/migration"
)

type migrateOutput struct {
	OK            bool     `json:"ok"`
	DryRun        bool     `json:"dry_run,omitempty"`
	BackupPath    string   `json:"backup_path,omitempty"`
	MigratedItems []string `json:"migrated_items,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

func runMigrate(arguments []string) int {
	flagSet := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	var dirFlag string
	var jsonOutput bool
	var verbose bool
	var dryRun bool
	var missingOnly bool
	flagSet.StringVar(&dirFlag, "dir", "", "configuration directory")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&verbose, "verbose", false, "log informational diagnostics")
	flagSet.BoolVar(&dryRun, "dry-run", false, "report what would migrate without writing")
	flagSet.BoolVar(&missingOnly, "missing", false, "import legacy entities missing from the current config")
	if err := flagSet.Parse(arguments); err != nil {
		printUsage()
		return exitInvalidInput
	}

	baseDir, err := configDir(dirFlag)
	if err != nil {
		return writeError(jsonOutput, err)
	}
	logger := newLogger(verbose)
	engine := migration.New(configstore.New(baseDir, logger), logger)

	var result migration.Result
	if missingOnly {
		result = engine.MigrateMissing()
	} else {
		result = engine.Migrate(dryRun)
	}
	if !result.Success {
		for _, warning := range result.Warnings {
			fmt.Fprintln(os.Stderr, "ccs: warning:", warning)
		}
		return writeError(jsonOutput, result.Err)
	}

	if jsonOutput {
		return writeJSONOutput(migrateOutput{
			OK:            true,
			DryRun:        dryRun,
			BackupPath:    result.BackupPath,
			MigratedItems: result.MigratedItems,
			Warnings:      result.Warnings,
		})
	}
	if dryRun {
		fmt.Println("dry run; nothing written")
	}
	for _, item := range result.MigratedItems {
		fmt.Println("migrated", item)
	}
	for _, warning := range result.Warnings {
		fmt.Println("warning:", warning)
	}
	if result.BackupPath != "" {
		fmt.Println("backup:", result.BackupPath)
	}
	return exitOK
}

func runRollback(arguments []string) int {
	flagSet := flag.NewFlagSet("rollback", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	var dirFlag string
	var jsonOutput bool
	var verbose bool
	var backupPath string
	flagSet.StringVar(&dirFlag, "dir", "", "configuration directory")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&verbose, "verbose", false, "log informational diagnostics")
	flagSet.StringVar(&backupPath, "backup", "", "backup snapshot directory to restore")
	if err := flagSet.Parse(arguments); err != nil {
		printUsage()
		return exitInvalidInput
	}
	if backupPath == "" {
		printUsage()
		return exitInvalidInput
	}

	baseDir, err := configDir(dirFlag)
	if err != nil {
		return writeError(jsonOutput, err)
	}
	logger := newLogger(verbose)
	engine := migration.New(configstore.New(baseDir, logger), logger)

	if err := engine.Rollback(backupPath); err != nil {
		return writeError(jsonOutput, err)
	}
	if jsonOutput {
		return writeJSONOutput(map[string]any{"ok": true, "restored_from": backupPath})
	}
	fmt.Println("restored from", backupPath)
	return exitOK
}
