package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3token/internal/config"
	"github.com/Mohsinsiddi/w3token/internal/logging"
	"github.com/Mohsinsiddi/w3token/internal/ui"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3token/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir         string
	cfg            *config.Config
	verbose        bool
	deploymentName string

	logger   = zap.NewNop()
	closeLog = func() {}
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3token",
	Short: "Wallet-connected client for a mintable ERC-20 token",
	Long: `w3token connects a wallet to one deployed token contract.

  Read the token's name, symbol, supply and your balance, then mint
  (owner only), burn or transfer from the terminal.

Run without a sub-command for the interactive page. The deployment is
taken from config unless --deployment names another one from
deployments.yaml.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		l, closeFn, err := logging.New(verbose, cfg.LogDir())
		if err != nil {
			return err
		}
		logger, closeLog = l, closeFn
		cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
		logger.Debug("config loaded", zap.String("dir", cfg.Dir()), zap.String("command", cmd.CommandPath()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPage(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		closeLog()
		fmt.Fprintln(os.Stderr, ui.Err(describeError(err)))
		os.Exit(1)
	}
}

func init() {
	// W3TOKEN_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv(config.EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.w3token)")
	rootCmd.PersistentFlags().StringVarP(&deploymentName, "deployment", "d", "", "deployment to use (default: config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	// Register all sub-commands.
	rootCmd.AddCommand(
		pageCmd,
		infoCmd,
		connectCmd,
		mintCmd,
		burnCmd,
		transferCmd,
		descriptorCmd,
		walletCmd,
		configCmd,
		deploymentsCmd,
	)
}
