// Command ccs manages provider accounts and launch profiles for AI CLI
// tools. This binary is a thin shell over the configuration store: every
// subcommand goes through Load/Save/Update or the migration engine, never
// through the files directly.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

const (
	exitOK              = 0
	exitFailure         = 1
	exitInvalidInput    = 2
	exitLockContention  = 3
	exitMigrationFailed = 4
)

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	if len(arguments) < 2 {
		fmt.Println("ccs", version)
		return exitOK
	}

	switch arguments[1] {
	case "config":
		return runConfig(arguments[2:])
	case "migrate":
		return runMigrate(arguments[2:])
	case "rollback":
		return runRollback(arguments[2:])
	case "version", "--version", "-v":
		fmt.Println("ccs", version)
		return exitOK
	case "help", "--help", "-h":
		printUsage()
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func printUsage() {
	fmt.Println(strings.TrimSpace(`
usage: ccs <command> [flags]

commands:
  config show      print the effective configuration
  config path      print the configuration file location
  migrate          migrate a legacy configuration (supports -dry-run, -missing)
  rollback         restore a pre-migration backup (-backup <path>)
  version          print the CLI version

common flags:
  -dir <path>      configuration directory (default: $CCS_CONFIG_DIR or ~/.config/ccs)
  -json            emit JSON output
  -verbose         log informational diagnostics to stderr
`))
}

// configDir resolves the base directory: explicit flag, then environment,
// then the platform user config dir.
func configDir(flagValue string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue, nil
	}
	if fromEnv := strings.TrimSpace(os.Getenv("CCS_CONFIG_DIR")); fromEnv != "" {
		return fromEnv, nil
	}
	userConfig, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(userConfig, "ccs"), nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
