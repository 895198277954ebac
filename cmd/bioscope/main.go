// Package main provides the bioscope CLI application entry point.
// bioscope is a terminal client for an AI-assisted research-exploration
// service over space-bioscience publications: chat with the assistant, browse
// related articles, and revisit past conversations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bioscope/internal/config"
	"bioscope/internal/events"
	"bioscope/internal/gateway"
	"bioscope/internal/logger"
	"bioscope/internal/services"
	"bioscope/internal/store"
)

var (
	logLevel string
	logFile  string
	testMode bool
	// version is stamped by release builds via -ldflags "-X main.version=...".
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bioscope",
	Short: "bioscope - space-bioscience research assistant client",
	Long: `bioscope is a terminal client for an AI-assisted research-exploration service.
Chat with the assistant about space-bioscience publications and revisit past conversations.`,
	Run: runChat, // Default behavior is the interactive chat loop
}

// chatCmd represents the chat command (explicit version of default behavior)
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long:  `Start an interactive chat session with the research assistant.`,
	Run:   runChat,
}

// askCmd sends a single prompt and prints the answer
var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send one prompt and print the answer",
	Args:  cobra.MinimumNArgs(1),
	Run:   runAsk,
}

// historyCmd groups the historical-conversation subcommands
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Work with past conversations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your past conversations",
	Run:   runHistoryList,
}

var historyOpenCmd = &cobra.Command{
	Use:   "open <historical-id>",
	Short: "Load a past conversation and make it current",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryOpen,
}

// resetCmd clears the current conversation
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the current conversation",
	Run:   runReset,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("bioscope v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	config.SetDefaults()

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "Run in deterministic test mode")
	rootCmd.PersistentFlags().String("api-url", "", "Base URL of the assistant service")

	// Bind flags to viper
	if err := viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-file flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("test_mode", rootCmd.PersistentFlags().Lookup("test-mode")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding test-mode flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding api-url flag: %v\n", err)
		os.Exit(1)
	}

	// Add subcommands
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyOpenCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(versionCmd)

	// Configure logger before any command execution
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile, testMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

// initServices loads configuration, wires the collaborators and registers the
// services in the global registry. Exactly one conversation service exists
// per process.
func initServices() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	identityStore, err := store.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := gateway.NewClient(cfg.APIURL, cfg.HTTPTimeout)
	client.SetTokenProvider(identityStore.GetToken)

	bus := events.NewBus()

	conversation := services.NewConversationService(client, identityStore, bus)
	conversation.SetTestMode(cfg.TestMode)

	registry := services.NewRegistry()
	if err := registry.RegisterService(conversation); err != nil {
		return nil, err
	}
	if err := registry.RegisterService(services.NewRenderService()); err != nil {
		return nil, err
	}
	if err := registry.InitializeAll(); err != nil {
		return nil, err
	}
	services.SetGlobalRegistry(registry)

	logger.Info("Services initialized", "api_url", cfg.APIURL)
	return cfg, nil
}
