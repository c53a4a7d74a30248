// Command ledgerctl is the terminal front end of the ledger. It talks to the
// database directly through the same services the API uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
)

// Version is stamped at build time.
var version = "dev"

// cli holds the per-invocation configuration shared by all subcommands.
type cli struct {
	cfgFile string
	v       *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Personal income and expense ledger",
		Long: `ledgerctl records income and expenses against categories and reports
monthly totals. Every transaction filed under a user-defined category is
mirrored into the reserved "All Income" or "All Expenses" category.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.config/ledgerctl/config.yaml)")
	flags.String("driver", "sqlite", "database driver (sqlite, postgres, mysql)")
	flags.String("db-path", "", "SQLite database file (default: $HOME/.local/share/ledgerctl/ledger.db)")
	flags.StringP("username", "u", "", "account username")
	flags.StringP("password", "p", "", "account password")
	flags.String("locale", "en", "language of month names in reports")
	flags.Bool("verbose", false, "log debug output to stderr")

	_ = a.v.BindPFlag("database.driver", flags.Lookup("driver"))
	_ = a.v.BindPFlag("database.path", flags.Lookup("db-path"))
	_ = a.v.BindPFlag("auth.username", flags.Lookup("username"))
	_ = a.v.BindPFlag("auth.password", flags.Lookup("password"))
	_ = a.v.BindPFlag("report.locale", flags.Lookup("locale"))
	_ = a.v.BindPFlag("logging.verbose", flags.Lookup("verbose"))

	root.AddCommand(a.registerCmd())
	root.AddCommand(a.categoriesCmd())
	root.AddCommand(a.transactionsCmd())
	root.AddCommand(a.reportCmd())
	root.AddCommand(versionCmd())

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

func (a *cli) initConfig(_ *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		a.v.AddConfigPath(filepath.Join(home, ".config", "ledgerctl"))
		a.v.AddConfigPath(".")
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("LEDGER")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if a.v.GetBool("logging.verbose") {
		logger.Init("development")
	} else {
		logger.Init("cli")
	}
	return nil
}

// describe renders application errors with their stable code.
func describe(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return fmt.Sprintf("%s (%s)", appErr.Message, appErr.Code)
	}
	return err.Error()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledgerctl %s\n", version)
		},
	}
}
