// Command storefront runs the storefront web front end and a command-line
// shop over the same backend API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose   bool
	stateFile string
	apiURL    string
	envFile   string

	cfg *config.Config
	log *zap.Logger
)

// errShown is returned by commands whose failure the terminal already printed.
var errShown = errors.New("operation failed")

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront web front end and command-line shop",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(envFile); err != nil {
			return err
		}
		if stateFile != "" {
			cfg.StateFile = stateFile
		}
		if apiURL != "" {
			cfg.APIURL = apiURL
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		if log, err = logger.New(level, cfg.LogFormat); err != nil {
			return err
		}
		zap.ReplaceGlobals(log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&stateFile, "state", "", "Browser state file for CLI commands (or set STOREFRONT_STATE)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API base URL (or set STOREFRONT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(adminCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errShown) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		}
		return 1
	}
	return 0
}

func newBackend() *backend.Client {
	caller := remote.New(cfg.APIURL,
		remote.WithLogger(log),
		remote.WithBreaker(cfg.BreakerThreshold, cfg.BreakerOpenFor),
	)
	return backend.New(caller, cfg.Policies)
}

// openBrowser loads the CLI's browser profile from the state file.
func openBrowser(ctx context.Context) (*session.Context, error) {
	store, err := storage.OpenFileStore(cfg.StateFile)
	if err != nil {
		return nil, err
	}
	return session.Load(ctx, store, log)
}
