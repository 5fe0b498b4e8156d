package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/backend"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Manage the Ollama container",
	Long: `Manage the Ollama container lifecycle.

All apps talk to a local Ollama server. The container persists its model
cache to ~/.lmdesk/ollama/, so pulled models survive restarts.

Examples:
  lmdesk backend start   # Start the Ollama container
  lmdesk backend stop    # Stop the container (models preserved)
  lmdesk backend status  # Check container status
  lmdesk backend logs    # View container logs`,
}

var backendStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Ollama container",
	Long: `Start the Ollama container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Starting Ollama...")
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start Ollama: %w", err)
		}

		fmt.Printf("Ollama is running at %s\n", mgr.URL())
		return nil
	},
}

var backendStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Ollama container",
	Long: `Stop the Ollama container.

This stops the container but preserves the model cache. Use
'lmdesk backend start' to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping Ollama...")
		if err := mgr.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop Ollama: %w", err)
		}

		fmt.Println("Ollama stopped")
		return nil
	},
}

var backendStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Ollama container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		switch status {
		case backend.StatusRunning:
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("URL: %s\n", mgr.URL())

			client := backend.NewClient(mgr.URL())
			if err := client.HealthCheck(ctx); err != nil {
				fmt.Printf("Health: unhealthy (%v)\n", err)
				return nil
			}
			fmt.Println("Health: healthy")

			models, err := client.ListModels(ctx)
			if err != nil {
				return nil
			}
			fmt.Printf("Models: %d\n", len(models))
			for _, m := range models {
				fmt.Printf("  %s\n", m.Name)
			}
		case backend.StatusStopped:
			fmt.Printf("Status: %s (use 'lmdesk backend start' to start)\n", status)
		case backend.StatusNotFound:
			fmt.Printf("Status: %s (use 'lmdesk backend start' to create)\n", status)
		default:
			fmt.Printf("Status: %s\n", status)
		}

		return nil
	},
}

var logsTail string

var backendLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show Ollama container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(cmd.Context(), logsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}

		fmt.Print(logs)
		return nil
	},
}

var backendRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the Ollama container",
	Long: `Remove the Ollama container.

This stops and removes the container. The model cache in
~/.lmdesk/ollama/ is NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Removing Ollama container...")
		if err := mgr.Remove(cmd.Context()); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}

		fmt.Println("Ollama container removed (models preserved)")
		return nil
	},
}

var backendWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for Ollama to be ready",
	Long: `Wait for Ollama to be ready to accept connections.

This is useful in scripts to ensure the backend is fully started
before running other commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		timeout, _ := cmd.Flags().GetDuration("timeout")
		fmt.Printf("Waiting for Ollama (timeout: %s)...\n", timeout)

		if err := mgr.WaitReady(cmd.Context(), timeout); err != nil {
			return fmt.Errorf("Ollama not ready: %w", err)
		}

		fmt.Println("Ollama is ready")
		return nil
	},
}

func init() {
	backendCmd.AddCommand(backendStartCmd)
	backendCmd.AddCommand(backendStopCmd)
	backendCmd.AddCommand(backendStatusCmd)
	backendCmd.AddCommand(backendLogsCmd)
	backendCmd.AddCommand(backendRemoveCmd)
	backendCmd.AddCommand(backendWaitCmd)

	backendLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	backendWaitCmd.Flags().Duration("timeout", 60*time.Second, "Timeout waiting for Ollama")

	rootCmd.AddCommand(backendCmd)
}

// getBackendManager creates a DockerManager pointed at the home model cache.
func getBackendManager() (*backend.DockerManager, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	return backend.NewDockerManager(backend.DockerConfig{
		DataPath: h.OllamaDataPath(),
	})
}
