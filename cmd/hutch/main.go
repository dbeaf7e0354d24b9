package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hutchdb/hutch/pkg/api"
	"github.com/hutchdb/hutch/pkg/config"
	"github.com/hutchdb/hutch/pkg/deploy"
	"github.com/hutchdb/hutch/pkg/log"
	"github.com/hutchdb/hutch/pkg/runtime"
	"github.com/hutchdb/hutch/pkg/storage"
	"github.com/hutchdb/hutch/pkg/volume"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hutch",
	Short: "Hutch - Database containers without the ceremony",
	Long: `Hutch provisions and manages database containers on a local
Docker or Podman engine. It speaks directly to the engine's unix
socket, translates between Docker and Podman API dialects, and
exposes a small HTTP API for browser UIs and scripts.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Hutch version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Hutch API server",
	Long: `Start the HTTP API server. The server discovers the container
engine socket automatically unless --socket is given, and keeps
deployment history in a bbolt database under the data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlagOverrides(cmd, &cfg)

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})

		gateway, err := runtime.NewGateway(cfg.Socket)
		if err != nil {
			return fmt.Errorf("failed to connect to container engine: %w", err)
		}
		endpoint := gateway.Endpoint()
		log.Logger.Info().
			Str("socket", endpoint.SocketPath).
			Str("dialect", string(endpoint.Dialect)).
			Msg("engine connected")

		volumes, err := volume.NewManager(cfg.VolumeRoot)
		if err != nil {
			return fmt.Errorf("failed to prepare volume root: %w", err)
		}

		store, err := storage.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open deployment store: %w", err)
		}
		defer store.Close()

		orchestrator := deploy.NewOrchestrator(
			gateway,
			deploy.NewCLIDiscoverer(endpoint.Dialect),
			volumes,
			store,
		)

		server := api.NewServer(gateway, orchestrator, store, volumes)
		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(cfg.Listen); err != nil {
				errCh <- fmt.Errorf("API server error: %w", err)
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("shutting down")
		case err := <-errCh:
			return err
		}

		if err := server.Stop(); err != nil {
			return fmt.Errorf("failed to stop API server: %w", err)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine connectivity and managed containers",
	RunE: func(cmd *cobra.Command, args []string) error {
		socketPath, _ := cmd.Flags().GetString("socket")

		log.Init(log.Config{Level: log.WarnLevel})

		gateway, err := runtime.NewGateway(socketPath)
		if err != nil {
			return fmt.Errorf("failed to connect to container engine: %w", err)
		}
		endpoint := gateway.Endpoint()
		fmt.Printf("Engine:  %s (%s)\n", endpoint.Dialect, endpoint.SocketPath)

		containers, err := gateway.ListContainers(cmd.Context(), true)
		if err != nil {
			return fmt.Errorf("failed to list containers: %w", err)
		}

		managed := 0
		for _, ct := range containers {
			if !ct.Managed() {
				continue
			}
			managed++
			fmt.Printf("  %-12s %-10s %-8s %s\n",
				shortID(ct.ID), ct.DatabaseName(), ct.State, ct.Image)
		}
		if managed == 0 {
			fmt.Println("No managed database containers.")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().String("listen", "", "API listen address (overrides config)")
	serveCmd.Flags().String("socket", "", "Container engine socket path (auto-detected if empty)")
	serveCmd.Flags().String("data-dir", "", "Data directory for deployment history")
	serveCmd.Flags().String("volume-root", "", "Root directory for database volumes")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().Bool("log-json", false, "Log in JSON format")

	statusCmd.Flags().String("socket", "", "Container engine socket path (auto-detected if empty)")
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		cfg.Listen = v
	}
	if v, _ := cmd.Flags().GetString("socket"); v != "" {
		cfg.Socket = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("volume-root"); v != "" {
		cfg.VolumeRoot = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if cmd.Flags().Changed("log-json") {
		v, _ := cmd.Flags().GetBool("log-json")
		cfg.Log.JSON = v
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
