package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/neume/monitor/internal/config"
	"github.com/neume/monitor/internal/db"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"
)

// loadConfig reads configPath, or returns the built-in defaults when it is
// empty.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// connectFromConfig loads config and opens the migrated record store.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := db.Open(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	return cfg, gormDB, nil
}

// storeName describes the store target for prompts and messages.
func storeName(sc config.StoreConfig) string {
	if sc.Driver == config.DriverMySQL {
		return fmt.Sprintf("mysql database %s on %s:%d", sc.Database, sc.Host, sc.Port)
	}
	return fmt.Sprintf("sqlite store %s", sc.Path)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// confirm asks the user to type "yes" before a destructive action. Input
// that is a file or pipe rather than a terminal is refused so scripts must
// pass --yes explicitly.
func confirm(cmd *cobra.Command, action string) (bool, error) {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && !isTerminal(f) {
		return false, fmt.Errorf("refusing to %s without --yes on non-interactive input", action)
	}

	fmt.Fprintf(out, "WARNING: This will %s.\n", action)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes", nil
	}
	return false, nil
}
