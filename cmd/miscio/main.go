package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/misciohq/miscio/internal/profile"
	"github.com/misciohq/miscio/plugin/sms"
	"github.com/misciohq/miscio/server"
	"github.com/misciohq/miscio/server/assistant"
	"github.com/misciohq/miscio/server/service/campaign"
	"github.com/misciohq/miscio/store"
	"github.com/misciohq/miscio/store/db"
)

const version = "0.1.0"

const greetingBanner = `
 __  __ _          _
|  \/  (_)___  ___(_) ___
| |\/| | / __|/ __| |/ _ \
| |  | | \__ \ (__| | (_) |
|_|  |_|_|___/\___|_|\___/
`

var rootCmd = &cobra.Command{
	Use:   "miscio",
	Short: "An assistant-driven student outreach service",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Secret:  viper.GetString("secret"),
			Version: version,
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}

		logLevel := slog.LevelInfo
		if instanceProfile.IsDev() {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			logger.Error("failed to create db driver", slog.String("error", err.Error()))
			os.Exit(1)
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", slog.String("error", err.Error()))
			os.Exit(1)
		}

		if !instanceProfile.IsAssistantEnabled() {
			logger.Error("assistant platform is not configured, set MISCIO_OPENAI_API_KEY")
			os.Exit(1)
		}
		platform := assistant.NewOpenAIPlatform(&assistant.Config{
			APIKey:  instanceProfile.OpenAIAPIKey,
			BaseURL: instanceProfile.OpenAIBaseURL,
			Model:   instanceProfile.OpenAIModel,
		})

		var messenger sms.Messenger
		if instanceProfile.IsMessagingEnabled() {
			messenger, err = sms.NewTwilioMessenger(&sms.TwilioConfig{
				AccountSID: instanceProfile.TwilioAccountSID,
				AuthToken:  instanceProfile.TwilioAuthToken,
				FromNumber: instanceProfile.TwilioFromNumber,
			})
			if err != nil {
				logger.Error("failed to create messenger", slog.String("error", err.Error()))
				os.Exit(1)
			}
		} else {
			logger.Warn("messaging provider is not configured, outbound messages will be logged only")
			messenger = sms.NewLogMessenger(logger)
		}

		campaignService := campaign.NewService(storeInstance, messenger, logger)
		orchestrator := assistant.NewOrchestrator(platform, logger)

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, logger, platform, orchestrator, campaignService)
		if err != nil {
			logger.Error("failed to create server", slog.String("error", err.Error()))
			os.Exit(1)
		}

		printGreetings(instanceProfile)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return s.Start(gctx)
		})
		g.Go(func() error {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
			case <-gctx.Done():
			}
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutdownCancel()
			s.Shutdown(shutdownCtx)
			cancel()
			return nil
		})

		if err := g.Wait(); err != nil {
			logger.Error("server exited with error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)
	viper.SetDefault("data", ".")
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("secret", "", "secret used to sign access tokens")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "secret"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("miscio")
	viper.AutomaticEnv()
}

func printGreetings(p *profile.Profile) {
	fmt.Print(greetingBanner + "\n")
	fmt.Printf("version %s has been started on port %d with %s driver\n", p.Version, p.Port, p.Driver)
	fmt.Println()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
