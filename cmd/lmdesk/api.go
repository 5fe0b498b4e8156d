package main

import (
	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running lmdesk server via HTTP.

These commands require a running server (lmdesk serve).
Use --server to specify a custom server URL.

Examples:
  lmdesk api health                       # Check server health
  lmdesk api data upload sales.csv        # Upload a dataset
  lmdesk api translate "Hello" --language Spanish
  lmdesk api quiz new --topics "photosynthesis"`,
}

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "CSV data analysis commands",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat session commands",
}

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Notes and Q&A generation commands",
}

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Quiz commands",
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Prompt inspection and override commands",
}

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "LLM call history commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Single-shot apps at top level
	apiCmd.AddCommand((&endpoints.OCREndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.TranslateEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.FixEndpoint{}).Command(getServerURL))

	for _, ep := range endpoints.DataCommands() {
		dataCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.ChatCommands() {
		chatCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.NotesCommands() {
		notesCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.QuizCommands() {
		quizCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.PromptCommands() {
		promptsCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.CallCommands() {
		callsCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(dataCmd)
	apiCmd.AddCommand(chatCmd)
	apiCmd.AddCommand(notesCmd)
	apiCmd.AddCommand(quizCmd)
	apiCmd.AddCommand(promptsCmd)
	apiCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(apiCmd)
}
