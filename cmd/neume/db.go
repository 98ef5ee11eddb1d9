package main

import (
	"fmt"

	"github.com/neume/monitor/internal/config"
	"github.com/neume/monitor/internal/db"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Record store management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the record store",
		Long:  "Creates the database (mysql only) and migrates the sessions, focus_logs and events tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to neume config file (default: built-in settings)")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Store.Driver == config.DriverMySQL {
		if err := createMySQLDatabase(cmd, cfg.Store, false); err != nil {
			return err
		}
	}

	if err := migrateStore(cmd, cfg.Store); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nRecord store initialized successfully.")
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all recorded data and re-initialize the record store",
		Long: `Removes the sqlite store file (or drops the mysql database) and
re-creates the empty tables. Asks for confirmation unless --yes is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to neume config file (default: built-in settings)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if !skipConfirm {
		ok, err := confirm(cmd, "permanently delete all data in the "+storeName(cfg.Store))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	switch cfg.Store.Driver {
	case config.DriverMySQL:
		if err := createMySQLDatabase(cmd, cfg.Store, true); err != nil {
			return err
		}
	default:
		if err := db.RemoveSQLiteFiles(cfg.Store.Path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %s\n", cfg.Store.Path)
	}

	if err := migrateStore(cmd, cfg.Store); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nRecord store reset successfully.")
	return nil
}

// createMySQLDatabase creates the configured database, dropping it first
// when drop is set.
func createMySQLDatabase(cmd *cobra.Command, sc config.StoreConfig, drop bool) error {
	out := cmd.OutOrStdout()

	adminDB, err := db.ConnectAdmin(sc)
	if err != nil {
		return fmt.Errorf("connect to mysql at %s:%d: %w", sc.Host, sc.Port, err)
	}
	defer db.Close(adminDB)
	fmt.Fprintf(out, "Connected to mysql at %s:%d\n", sc.Host, sc.Port)

	if drop {
		if err := db.DropDatabase(adminDB, sc.Database); err != nil {
			return err
		}
		fmt.Fprintf(out, "Dropped database %s\n", sc.Database)
	}

	if err := db.CreateDatabase(adminDB, sc.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s ready\n", sc.Database)
	return nil
}

// migrateStore opens the store, which creates any missing tables, and
// closes it again.
func migrateStore(cmd *cobra.Command, sc config.StoreConfig) error {
	gormDB, err := db.Open(sc)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close(gormDB)

	fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables in %s\n", len(db.AllModels()), storeName(sc))
	return nil
}
