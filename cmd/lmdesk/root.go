package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/home"
	"github.com/nchauhan/lmdesk/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "lmdesk",
	Short: "Local LLM desk apps: data analysis, OCR, notes, quizzes and chat",
	Long: `lmdesk is a local-first LLM workbench backed by Ollama.

It bundles a set of desk apps behind one HTTP API:
  - CSV data analysis with model-written Python executed in a sandbox
  - Vision-model OCR for images and PDFs
  - Notes, Q&A and quiz generation for study material
  - A general chatbot with saved sessions
  - Text translation and formatting cleanup`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.lmdesk/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "lmdesk home directory (default: ~/.lmdesk)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json, or text",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		if h.ConfigExists() {
			return fmt.Errorf("config already exists at %s", h.ConfigPath())
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		cmd.Printf("Wrote default config to %s\n", h.ConfigPath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}
