package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolkov/inventory-harvester/internal/app"
	"github.com/avolkov/inventory-harvester/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.inventory-harvester.yaml)")
	rootCmd.Flags().String("url", "", "Base URL of the target application.")
	rootCmd.Flags().String("username", "", "Login username. Only used when the target asks for a login.")
	rootCmd.Flags().String("password", "", "Login password.")
	rootCmd.Flags().String("session-file", "", "Path of the cookie session file reused between runs.")
	rootCmd.Flags().StringP("out", "o", "", "Path of the JSON export.")
	rootCmd.Flags().String("sqlite", "", "Optional sqlite database to mirror the records into.")
	rootCmd.Flags().IntP("max-records", "n", 0, "Stop after this many records. 0 collects the whole list.")
	rootCmd.Flags().Int("stability-threshold", 0, "Consecutive unchanged row-count reads that end the harvest.")
	rootCmd.Flags().Duration("settle-timeout", 0, "How long to wait for new rows after each scroll.")
	rootCmd.Flags().Bool("headless", true, "Run the browser headless.")
	rootCmd.Flags().Bool("stealth", false, "Inject anti-automation-detection JS.")
	rootCmd.Flags().Bool("debug", false, "Verbose logging and debug screenshots.")

	bind := func(key, flag string) {
		if err := viper.BindPFlag(key, rootCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	bind("url", "url")
	bind("username", "username")
	bind("password", "password")
	bind("session_file", "session-file")
	bind("out_file", "out")
	bind("sqlite_file", "sqlite")
	bind("max_records", "max-records")
	bind("stability_threshold", "stability-threshold")
	bind("settle_timeout", "settle-timeout")
	bind("headless", "headless")
	bind("stealth", "stealth")
	bind("debug", "debug")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	def := config.Default()
	viper.SetDefault("url", def.URL)
	viper.SetDefault("session_file", def.SessionFile)
	viper.SetDefault("out_file", def.OutFile)
	viper.SetDefault("screenshot_dir", def.ScreenshotDir)
	viper.SetDefault("headless", def.Headless)
	viper.SetDefault("stealth", def.Stealth)
	viper.SetDefault("max_records", def.MaxRecords)
	viper.SetDefault("stability_threshold", def.StabilityThreshold)
	viper.SetDefault("settle_timeout", def.SettleTimeout)
	viper.SetDefault("nav_timeout", def.NavTimeout)
	viper.SetDefault("harvest_timeout", def.HarvestTimeout)

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".inventory-harvester" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".inventory-harvester")
	}

	viper.SetEnvPrefix("harvester")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

var rootCmd = &cobra.Command{
	Use:   "inventory-harvester",
	Short: "Logs into the target app, scrolls the product inventory and exports it as JSON",

	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		logger, err := buildLogger(cfg.Debug)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		a, err := app.New(cfg, logger.Sugar())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Run(ctx)
	},
	SilenceUsage: true,
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	return cfg.Build()
}
