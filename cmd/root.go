// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/absmeta/metadata-server/internal/config"
	"github.com/absmeta/metadata-server/internal/database"
	"github.com/absmeta/metadata-server/internal/docsgen"
	"github.com/absmeta/metadata-server/internal/metrics"
	"github.com/absmeta/metadata-server/internal/provider"
	"github.com/absmeta/metadata-server/internal/providers"
	"github.com/absmeta/metadata-server/internal/server"
	"github.com/absmeta/metadata-server/internal/watcher"
)

var cfgFile string
var providersDir string
var databasePath string
var databaseType string
var dataDir string
var watchProviders bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "metadata-server",
	Short: "Custom metadata provider server for audiobook libraries",
	Long: `Metadata Server aggregates book and audiobook metadata from pluggable
providers behind a single HTTP API.

Each provider declares its parameters in a config.json; searches are
validated against that schema and results are cached in a local store.`,
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the metadata server",
	Long:  `Start the HTTP server exposing the registered metadata providers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.CloseStore()

		fmt.Printf("Using database: %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)

		providers.RegisterAll(providers.Options{DataDir: config.AppConfig.DataDir})

		registry := provider.NewRegistry()
		if err := registry.LoadProviders(config.AppConfig.ProvidersDir); err != nil {
			return fmt.Errorf("failed to load providers: %w", err)
		}
		fmt.Printf("Loaded %d provider(s) from %s\n", len(registry.GetAll()), config.AppConfig.ProvidersDir)
		metrics.SetProviders(len(registry.GetAll()))

		if config.AppConfig.WatchProviders {
			w := watcher.New(func(rootDir string) {
				if err := registry.LoadProviders(rootDir); err != nil {
					log.Printf("[WARN] provider reload failed: %v", err)
					return
				}
				metrics.SetProviders(len(registry.GetAll()))
			}, 0)
			if err := w.Start(config.AppConfig.ProvidersDir); err != nil {
				return fmt.Errorf("failed to watch providers directory: %w", err)
			}
			defer w.Stop()
			fmt.Printf("Watching %s for provider config changes\n", config.AppConfig.ProvidersDir)
		}

		cfg := server.GetDefaultServerConfig()
		cfg.RateLimitPerMin = config.AppConfig.RateLimitPerMin

		if port := cmd.Flag("port").Value.String(); port != "" {
			cfg.Port = port
		}
		if host := cmd.Flag("host").Value.String(); host != "" {
			cfg.Host = host
		}
		if rt := cmd.Flag("read-timeout").Value.String(); rt != "" {
			if d, err := time.ParseDuration(rt); err == nil {
				cfg.ReadTimeout = d
			}
		}
		if wt := cmd.Flag("write-timeout").Value.String(); wt != "" {
			if d, err := time.ParseDuration(wt); err == nil {
				cfg.WriteTimeout = d
			}
		}
		if it := cmd.Flag("idle-timeout").Value.String(); it != "" {
			if d, err := time.ParseDuration(it); err == nil {
				cfg.IdleTimeout = d
			}
		}

		srv := server.NewServer(registry, database.GlobalStore, cfg)
		return srv.Start(cfg)
	},
}

// docsCmd represents the docs command
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate provider documentation",
	Long:  `Generate a Providers.md document describing every available provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output := cmd.Flag("output").Value.String()
		count, err := docsgen.Generate(config.AppConfig.ProvidersDir, output)
		if err != nil {
			return err
		}
		fmt.Printf("Generated %s with %d provider(s)\n", output, count)
		return nil
	},
}

// cacheClearCmd represents the cache-clear command
var cacheClearCmd = &cobra.Command{
	Use:   "cache-clear [providerId]",
	Short: "Clear cached provider results",
	Long:  `Clear cached search and book results, for one provider or all of them.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.CloseStore()

		providerID := ""
		if len(args) > 0 {
			providerID = args[0]
		}
		if err := database.GlobalStore.ClearCache(providerID); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		if providerID == "" {
			fmt.Println("Cleared cache for all providers")
		} else {
			fmt.Printf("Cleared cache for %s\n", providerID)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.metadata-server.yaml)")
	rootCmd.PersistentFlags().StringVar(&providersDir, "providers", "providers", "directory containing provider config directories")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "data/cache.pebble", "path to cache database")
	rootCmd.PersistentFlags().StringVar(&databaseType, "db-type", "pebble", "database type: pebble (default) or sqlite")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "data", "directory for provider data files")
	rootCmd.PersistentFlags().BoolVar(&watchProviders, "watch", false, "reload providers when their configs change")

	viper.BindPFlag("providers_dir", rootCmd.PersistentFlags().Lookup("providers"))
	viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("database_type", rootCmd.PersistentFlags().Lookup("db-type"))
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("watch_providers", rootCmd.PersistentFlags().Lookup("watch"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(cacheClearCmd)

	// Add serve command specific flags
	serveCmd.Flags().String("port", "3000", "port to run the server on")
	serveCmd.Flags().String("host", "0.0.0.0", "host to bind the server to")
	serveCmd.Flags().String("read-timeout", "15s", "read timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("write-timeout", "60s", "write timeout (e.g. 60s, 2m)")
	serveCmd.Flags().String("idle-timeout", "60s", "idle timeout (e.g. 60s, 2m)")
	serveCmd.Flags().Int("rate-limit", 0, "per-IP requests per minute (0 disables)")
	viper.BindPFlag("rate_limit_per_min", serveCmd.Flags().Lookup("rate-limit"))

	docsCmd.Flags().String("output", "Providers.md", "output path for the generated document")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".metadata-server")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	// Ensure database directory exists
	if databasePath != "" {
		dbDir := filepath.Dir(databasePath)
		if dbDir != "." {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				fmt.Printf("Error creating database directory: %v\n", err)
			}
		}
	}

	config.InitConfig()
}
