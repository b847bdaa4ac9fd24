package main

import (
	"fmt"
	"strconv"

	"oracle/internal/platform/config"
	"oracle/internal/platform/store/migrate"

	"github.com/spf13/cobra"
)

// migrator is the slice of *migrate.Migrator the commands drive
type migrator interface {
	Up() error
	Down(n int) error
	Version() (uint, bool, error)
	Close() error
}

var openMigrator = func(dsn string) (migrator, error) { return migrate.Open(dsn) }

func newMigrateCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema",
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres url (default SERVICE_PGSQL_DBURL)")

	with := func(fn func(m migrator, args []string) (string, error)) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			url := dsn
			if url == "" {
				url = config.New().Prefix("SERVICE_PGSQL_").MayString("DBURL", "")
			}
			m, err := openMigrator(url)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()
			out, err := fn(m, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), out)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: with(func(m migrator, _ []string) (string, error) {
				if err := m.Up(); err != nil {
					return "", err
				}
				return versionLine(m)
			}),
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back steps migrations (all when omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE: with(func(m migrator, args []string) (string, error) {
				n := 0
				if len(args) == 1 {
					v, err := strconv.Atoi(args[0])
					if err != nil || v <= 0 {
						return "", fmt.Errorf("steps must be a positive integer, got %q", args[0])
					}
					n = v
				}
				if err := m.Down(n); err != nil {
					return "", err
				}
				return versionLine(m)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: with(func(m migrator, _ []string) (string, error) {
				return versionLine(m)
			}),
		},
	)
	return cmd
}

func versionLine(m migrator) (string, error) {
	v, dirty, err := m.Version()
	if err != nil {
		return "", err
	}
	if dirty {
		return fmt.Sprintf("version %d (dirty)", v), nil
	}
	return fmt.Sprintf("version %d", v), nil
}
