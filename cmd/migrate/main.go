// Command migrate applies the postgres schema of the ledger.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrationsDir string
	logLevel      string
	log           *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the ledger database schema",
	Long: `migrate runs the postgres schema migrations.

Migrations are compiled into the binary; --dir reads them from a directory
instead. The connection comes from config.toml and LEDGER_DATABASE_*
environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logger.New(&logger.Config{
			Level:      logLevel,
			Format:     "console",
			Output:     "stdout",
			TimeFormat: "2006-01-02 15:04:05",
		})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "read migrations from this directory instead of the embedded set")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE:  withMigrator(func(m *migration.Migrator, _ []string) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE:  withMigrator(func(m *migration.Migrator, _ []string) error { return m.Steps(-1) }),
		},
		&cobra.Command{
			Use:     "steps <n>",
			Short:   "Apply n migrations, rolling back when n is negative",
			Example: "  migrate steps 2\n  migrate steps -- -1",
			Args:    cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "to <version>",
			Short: "Migrate up or down to a version",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.To(uint(v))
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied without running it",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		},
		dropCmd(),
		createCmd(),
		listCmd(),
	)
}

func dropCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table (destroys all data)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("drop needs --confirm")
			}
			return withMigrator(func(m *migration.Migrator, _ []string) error { return m.Drop() })(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm dropping every table")
	return cmd
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Write the next numbered up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := migrationsDir
			if dir == "" {
				dir = "migrations"
			}
			f, err := migration.Create(dir, args[0])
			if err != nil {
				return err
			}
			log.Info("Migration created",
				zap.Uint("version", f.Version),
				zap.String("up", f.UpPath),
				zap.String("down", f.DownPath),
			)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				bases []string
				err   error
			)
			if migrationsDir != "" {
				bases, err = migration.List(migrationsDir)
			} else {
				bases, err = migration.Embedded()
			}
			if err != nil {
				return err
			}
			for _, b := range bases {
				fmt.Fprintln(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}
}

// withMigrator opens the configured database and runs fn with a Migrator
func withMigrator(fn func(*migration.Migrator, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if cfg.Database.Driver == "sqlite" {
			return fmt.Errorf("migrations target postgres; the server auto-migrates sqlite")
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		opts := []migration.Option{migration.WithLogger(log)}
		if migrationsDir != "" {
			opts = append(opts, migration.WithDir(migrationsDir))
		}
		m, err := migration.Open(db, opts...)
		if err != nil {
			return err
		}
		defer m.Close()

		return fn(m, args)
	}
}

func main() {
	err := rootCmd.Execute()
	if log != nil {
		_ = log.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}
