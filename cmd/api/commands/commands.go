package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mbj/siteapi/internal/adapters/repository"
	"github.com/mbj/siteapi/internal/application/services"
	"github.com/mbj/siteapi/internal/domain/entities"
	"github.com/mbj/siteapi/internal/infrastructure/config"
	"github.com/mbj/siteapi/internal/infrastructure/logger"
	"github.com/mbj/siteapi/internal/infrastructure/metrics"
	"github.com/mbj/siteapi/internal/infrastructure/server"
	"github.com/mbj/siteapi/internal/infrastructure/watcher"
)

// Set at build time with -ldflags "-X ...".
var (
	Version   = "dev"
	GitCommit = "development"
	BuildDate = "unknown"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the siteapi server",
		Long:  "Bootstrap the data directory and serve the content API until SIGINT or SIGTERM",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewBootstrapCommand creates the bootstrap command
func NewBootstrapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create missing resource files",
		Long:  "Create the data directory and seed every missing resource file from SEED_DIR, or with an empty array",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, appLogger := loadRuntime()
			defer appLogger.Close()

			store := openStore(cfg, appLogger)
			for _, key := range entities.AllResourceKeys() {
				path, _ := store.Path(key)
				fmt.Println(path)
			}
		},
	}
}

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the resource files on disk",
		Long:  "Read every resource file and run its validator. Exits non-zero if any file fails.",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, appLogger := loadRuntime()
			defer appLogger.Close()

			store, err := repository.NewResourceStore(cfg.Storage.DataDir, appLogger)
			if err != nil {
				log.Fatalf("Failed to open data directory: %v", err)
			}
			content := services.NewContentService(store, services.NewTokenAuthenticator(cfg.Auth, appLogger), nil, appLogger)

			failed := false
			for _, report := range content.Check(cmd.Context()) {
				if report.OK {
					fmt.Printf("ok    %-8s %d records  %s\n", report.Resource, report.Records, report.Path)
					continue
				}
				failed = true
				fmt.Printf("FAIL  %-8s %s  %s\n", report.Resource, report.Error, report.Path)
			}

			if failed {
				_ = appLogger.Close()
				os.Exit(1)
			}
		},
	}
}

// NewTokenCommand creates the token management command
func NewTokenCommand() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Admin token helpers",
	}

	hashCmd := &cobra.Command{
		Use:   "hash",
		Short: "Print a bcrypt hash for API_TOKEN_HASH",
		Run: func(cmd *cobra.Command, args []string) {
			token, _ := cmd.Flags().GetString("token")
			if token == "" {
				log.Fatal("--token is required")
			}

			hash, err := services.HashToken(token)
			if err != nil {
				log.Fatalf("Failed to hash token: %v", err)
			}
			fmt.Println(hash)
		},
	}
	hashCmd.Flags().String("token", "", "Admin token to hash (required)")

	tokenCmd.AddCommand(hashCmd)
	return tokenCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print siteapi version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("siteapi %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

func loadRuntime() (*config.Config, *logger.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, appLogger
}

// seedDefaults maps every resource to <SeedDir>/<key>.json.
func seedDefaults(seedDir string) map[entities.ResourceKey]string {
	defaults := make(map[entities.ResourceKey]string)
	for _, key := range entities.AllResourceKeys() {
		defaults[key] = filepath.Join(seedDir, key.FileName())
	}
	return defaults
}

func openStore(cfg *config.Config, appLogger *logger.Logger) *repository.ResourceStore {
	store, err := repository.NewResourceStore(cfg.Storage.DataDir, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to open data directory", "error", err)
	}

	if err := store.EnsureDirectory(); err != nil {
		appLogger.Fatalw("Failed to create data directory", "dir", cfg.Storage.DataDir, "error", err)
	}
	if err := store.Bootstrap(context.Background(), seedDefaults(cfg.Storage.SeedDir)); err != nil {
		appLogger.Fatalw("Failed to bootstrap data directory", "dir", cfg.Storage.DataDir, "error", err)
	}
	return store
}

func runServer() {
	cfg, appLogger := loadRuntime()
	defer appLogger.Close()

	store := openStore(cfg, appLogger)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	srv, err := server.New(cfg, store, appLogger, m)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Infow("Starting siteapi server",
			"address", cfg.Server.Addr(),
			"environment", cfg.App.Environment,
			"data_dir", store.DataDir(),
		)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Watcher.Enabled {
		dataWatcher, err := watcher.New(store.DataDir(), srv.Content(), m, appLogger)
		if err != nil {
			appLogger.Warnw("Data directory watcher disabled", "error", err)
		} else {
			g.Go(func() error {
				return dataWatcher.Run(gctx)
			})
		}
	}

	if err := g.Wait(); err != nil {
		appLogger.Errorw("Server stopped with error", "error", err)
		_ = appLogger.Close()
		os.Exit(1)
	}

	appLogger.Infow("Server stopped")
}
