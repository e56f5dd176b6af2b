package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/app"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/config"
	"github.com/iho/finledger/internal/infrastructure/logger"
	"github.com/iho/finledger/internal/usecase"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cli struct {
	out     io.Writer
	envFile string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	rootCmd := &cobra.Command{
		Use:           "finledger-cli",
		Short:         "FinLedger CLI tool",
		Long:          `A command line interface for operating on a FinLedger database directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", "", "dotenv file to load instead of .env")

	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "Entry operations",
	}
	entriesCmd.AddCommand(c.findCmd(), c.statusCmd())

	rootCmd.AddCommand(entriesCmd, c.balanceCmd(), c.hashPasswordCmd(), c.migrateCmd())
	return rootCmd
}

func (c *cli) loadConfig() (*config.Config, error) {
	if c.envFile != "" {
		return config.Load(c.envFile)
	}
	return config.Load()
}

// withLedger opens the configured store and runs fn against a ledger over it.
func (c *cli) withLedger(ctx context.Context, fn func(*usecase.LedgerUseCase, *app.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	log := c.logger(cfg)

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(usecase.NewLedgerUseCase(store.Entries, store.Users, app.LedgerOptions(cfg)...), store)
}

// logger writes to stderr so command output stays parseable.
func (c *cli) logger(cfg *config.Config) zerolog.Logger {
	return logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, os.Stderr)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) findCmd() *cobra.Command {
	var q dto.EntryQuery

	cmd := &cobra.Command{
		Use:   "find",
		Short: "List entries of a user matching the given filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if q.UserID == "" {
				return fmt.Errorf("--user is required")
			}
			filter, err := q.ToFilter()
			if err != nil {
				return err
			}

			return c.withLedger(cmd.Context(), func(ledger *usecase.LedgerUseCase, store *app.Store) error {
				if _, err := store.Users.GetByID(cmd.Context(), q.UserID); err != nil {
					return err
				}
				entries, err := ledger.Find(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return c.printJSON(dto.ListEntriesResponse{
					Entries: dto.EntriesFromDomain(entries),
					Total:   int64(len(entries)),
				})
			})
		},
	}

	cmd.Flags().StringVar(&q.UserID, "user", "", "owner id")
	cmd.Flags().StringVar(&q.Description, "description", "", "case-insensitive description substring")
	cmd.Flags().StringVar(&q.Month, "month", "", "month 1-12")
	cmd.Flags().StringVar(&q.Year, "year", "", "year")
	cmd.Flags().StringVar(&q.Kind, "kind", "", "INCOME or EXPENSE")
	cmd.Flags().StringVar(&q.Status, "status", "", "PENDING, CONFIRMED or CANCELLED")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <entry-id> <status>",
		Short: "Change the status of an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseEntryStatus(args[1])
			if err != nil {
				return err
			}

			return c.withLedger(cmd.Context(), func(ledger *usecase.LedgerUseCase, _ *app.Store) error {
				entry, err := ledger.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				updated, err := ledger.ChangeStatus(cmd.Context(), entry, status)
				if err != nil {
					return err
				}
				return c.printJSON(dto.EntryFromDomain(updated))
			})
		},
	}
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user-id>",
		Short: "Print the balance of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(cmd.Context(), func(ledger *usecase.LedgerUseCase, store *app.Store) error {
				if _, err := store.Users.GetByID(cmd.Context(), args[0]); err != nil {
					return err
				}
				balance, err := ledger.BalanceForUser(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.printJSON(dto.BalanceResponse{UserID: args[0], Balance: balance})
			})
		},
	}
}

func (c *cli) hashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for seeding users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.ValidatePassword(args[0]); err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), cost)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, string(hash))
			return err
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost "+strconv.Itoa(bcrypt.MinCost)+"-"+strconv.Itoa(bcrypt.MaxCost))
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	run := func(down bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := app.Migrate(cfg, c.logger(cfg), down); err != nil {
				return err
			}
			direction := "up"
			if down {
				direction = "down"
			}
			_, err = fmt.Fprintf(c.out, "migrate %s: ok\n", direction)
			return err
		}
	}

	migrateCmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs, RunE: run(false)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", Args: cobra.NoArgs, RunE: run(true)},
	)
	return migrateCmd
}
