package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizops-backend/internal/cache"
	"bizops-backend/internal/config"
	"bizops-backend/internal/database"
	"bizops-backend/internal/server"
	"bizops-backend/internal/storage"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "bizops",
		Short:        "Business operations API: assets, maintenance and purchasing",
		SilenceUsage: true,
		RunE:         serve,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE:  serve,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				database.Init(config.Load())
				return nil
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	database.Init(cfg)

	store := responseStore(cmd.Context(), cfg)

	files, err := storage.NewDisk(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		return err
	}

	app := server.New(cfg, store, files)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[WARN] shutdown: %v", err)
		}
	}()

	log.Printf("Listening on :%s", cfg.HTTPPort)
	return app.Listen(":" + cfg.HTTPPort)
}

// responseStore prefers Redis and falls back to memory when it is unset or unreachable.
func responseStore(ctx context.Context, cfg *config.Config) cache.Store {
	if cfg.RedisURL == "" {
		return cache.NewMemoryStore()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rdb, err := cache.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("[WARN] %v, using the in-process response cache", err)
		return cache.NewMemoryStore()
	}
	log.Println("Response cache: redis")
	return cache.NewRedisStore(rdb)
}
