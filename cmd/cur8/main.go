package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"cur8/internal/config"
	"cur8/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	serverURL  string
	platform   string
	offline    bool

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cur8",
	Short: "cur8 - curation bot control client",
	Long: `cur8 manages the accounts a Steem/Hive curation bot votes for.

It keeps a local mirror of the tracked accounts, syncs changes to the bot
server in the background, counts daily votes per account, imports the
curator's delegators and shows who voted on a post and when.

Run without arguments to start the interactive dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if workspace == "" {
			if workspace, err = os.Getwd(); err != nil {
				return fmt.Errorf("failed to resolve workspace: %w", err)
			}
		}
		if configPath == "" {
			configPath = config.DefaultConfigPath(workspace)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.API.BaseURL = serverURL
		}
		if platform != "" {
			cfg.UI.Platform = platform
		}
		if offline {
			cfg.Chain.Enabled = false
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// The dashboard owns the terminal; its logs go to a file.
		if isInteractive(cmd) && cfg.Logging.File == "" {
			cfg.Logging.File = filepath.Join(".cur8", "cur8.log")
		}
		cfg.ResolvePaths(workspace)

		if err := logging.Initialize(cfg.Logging.Options(verbose)); err != nil {
			return err
		}
		logger = logging.Base()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runDashboard,
}

func isInteractive(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "dashboard"
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory holding .cur8/ (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/.cur8/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Bot server base URL (overrides config and CUR8_SERVER_URL)")
	rootCmd.PersistentFlags().StringVarP(&platform, "platform", "p", "", "Active platform: steem or hive")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Do not contact blockchain nodes")

	rootCmd.AddCommand(
		accountsCmd,
		voteCmd,
		delegatorsCmd,
		votersCmd,
		postCmd,
		exportCmd,
		importCmd,
		themeCmd,
		platformCmd,
		statsCmd,
		settingsCmd,
		dashboardCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
