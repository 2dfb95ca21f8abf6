package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyilmaz/url-shortener/internal/auth"
	"github.com/dyilmaz/url-shortener/internal/config"
	"github.com/dyilmaz/url-shortener/internal/hashid"
	"github.com/dyilmaz/url-shortener/internal/metrics"
	"github.com/dyilmaz/url-shortener/internal/qr"
	"github.com/dyilmaz/url-shortener/internal/repository/mysql"
	"github.com/dyilmaz/url-shortener/internal/service"
	"github.com/dyilmaz/url-shortener/internal/storage"
	"github.com/dyilmaz/url-shortener/internal/storage/gcs"
	"github.com/dyilmaz/url-shortener/internal/transport/client"
	httpTransport "github.com/dyilmaz/url-shortener/internal/transport/http"
)

var rootCmd = &cobra.Command{
	Use:   "url-shortener",
	Short: "A URL shortening web application",
	Long:  "A URL shortening web application with user accounts, click statistics, QR codes in Google Cloud Storage and a MySQL backend",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the URL shortening server",
	RunE:  runServer,
}

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Run a load test against a running server",
	RunE:  runLoadTest,
}

func init() {
	loadtestCmd.Flags().StringP("server-url", "u", "http://localhost:5000", "Server URL")
	loadtestCmd.Flags().Int("users", 10, "Number of concurrent simulated users")
	loadtestCmd.Flags().Int("iterations", 50, "Requests per simulated user")

	rootCmd.AddCommand(serverCmd, loadtestCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Starting URL shortener server with config: port=%s", cfg.Server.Port)

	// Initialize database
	repo, err := mysql.New(mysql.Config{
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Database:   cfg.Database.Database,
		PoolMin:    cfg.Database.PoolMin,
		PoolMax:    cfg.Database.PoolMax,
		Autocommit: cfg.Database.Autocommit,
		Timeout:    cfg.Database.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("Error closing repository: %v", err)
		}
	}()

	// Initialize the object store when a bucket is configured
	var store storage.ObjectStore
	if cfg.Storage.BucketName != "" {
		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		gcsStore, err := gcs.New(initCtx, cfg.Storage.BucketName)
		if err != nil {
			return fmt.Errorf("failed to initialize object store: %w", err)
		}
		defer func() {
			if err := gcsStore.Close(); err != nil {
				log.Printf("Error closing object store: %v", err)
			}
		}()
		store = gcsStore
		log.Printf("Using GCS bucket %s for QR codes", cfg.Storage.BucketName)
	} else {
		log.Printf("No GCS bucket configured, QR codes disabled")
	}

	codec, err := hashid.New(hashid.Config{
		Salt:      cfg.Session.SecretKey,
		MinLength: cfg.Session.HashidMinLength,
	})
	if err != nil {
		return fmt.Errorf("failed to create hashid codec: %w", err)
	}

	m := metrics.New()
	sessions := auth.NewSessionManager(cfg.Session.SecretKey)

	// Short links point at the external redirect service when forwarding
	// mode is enabled, at this server otherwise.
	linkBase := cfg.Server.BaseURL
	var resolver service.Resolver
	if cfg.Redirect.UseRedirectService {
		linkBase = cfg.Redirect.ServiceURL
		resolver = service.NewForwardingResolver(cfg.Redirect.ServiceURL)
		log.Printf("Forwarding redirects to %s", cfg.Redirect.ServiceURL)
	} else {
		resolver = service.NewLocalResolver(codec, repo, m)
	}

	shortener := service.NewShortener(repo, codec, qr.NewPNGGenerator(), store, m, linkBase)
	authSvc := service.NewAuth(repo, m)

	handler := httpTransport.NewHandler(shortener, authSvc, resolver, sessions)
	server := httpTransport.NewServer(handler, m, cfg.Server.Port, cfg.Logging.Verbose)

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during server shutdown: %v", err)
		}
	}

	log.Println("Server stopped")
	return nil
}

func runLoadTest(cmd *cobra.Command, args []string) error {
	serverURL, _ := cmd.Flags().GetString("server-url")
	users, _ := cmd.Flags().GetInt("users")
	iterations, _ := cmd.Flags().GetInt("iterations")

	lt := client.NewLoadTest(client.LoadTestOptions{
		ServerURL:  serverURL,
		Users:      users,
		Iterations: iterations,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return lt.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
