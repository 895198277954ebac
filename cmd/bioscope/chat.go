package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"bioscope/internal/logger"
	"bioscope/internal/services"
	"bioscope/pkg/biotypes"

	"github.com/spf13/cobra"
)

var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	articleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
)

func runChat(_ *cobra.Command, _ []string) {
	if _, err := initServices(); err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	conversation, err := services.GetGlobalConversationService()
	if err != nil {
		logger.Fatal("Conversation service unavailable", "error", err)
	}

	fmt.Println(titleStyle.Render("bioscope") + " - ask about space-bioscience research. Ctrl-D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		answer, err := conversation.SendMessage(context.Background(), line)
		if err != nil {
			handleSendError(err)
			continue
		}
		printAnswer(answer)
		printArticles(conversation.Articles())
	}
}

func runAsk(_ *cobra.Command, args []string) {
	if _, err := initServices(); err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	conversation, err := services.GetGlobalConversationService()
	if err != nil {
		logger.Fatal("Conversation service unavailable", "error", err)
	}

	answer, err := conversation.SendMessage(context.Background(), strings.Join(args, " "))
	if err != nil {
		handleSendError(err)
		os.Exit(1)
	}
	printAnswer(answer)
	printArticles(conversation.Articles())
}

func runHistoryList(_ *cobra.Command, _ []string) {
	if _, err := initServices(); err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	conversation, err := services.GetGlobalConversationService()
	if err != nil {
		logger.Fatal("Conversation service unavailable", "error", err)
	}

	records, err := conversation.ListHistory(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Could not load history: "+err.Error()))
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No past conversations.")
		return
	}
	for _, record := range records {
		fmt.Printf("%s  %s\n", record.ID, record.Title)
	}
}

func runHistoryOpen(_ *cobra.Command, args []string) {
	if _, err := initServices(); err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	conversation, err := services.GetGlobalConversationService()
	if err != nil {
		logger.Fatal("Conversation service unavailable", "error", err)
	}

	messages, err := conversation.GetMessagesHistorical(context.Background(), args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Could not open conversation: "+err.Error()))
		os.Exit(1)
	}

	for _, msg := range messages {
		if msg.Sender == biotypes.SenderUser {
			fmt.Println(promptStyle.Render("you> ") + msg.Text)
			continue
		}
		printAnswer(&msg)
	}
}

func runReset(_ *cobra.Command, _ []string) {
	if _, err := initServices(); err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	conversation, err := services.GetGlobalConversationService()
	if err != nil {
		logger.Fatal("Conversation service unavailable", "error", err)
	}

	if err := conversation.ResetChat(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Reset failed: "+err.Error()))
		os.Exit(1)
	}
	fmt.Println("Conversation cleared.")
}

// printAnswer renders one assistant turn, as markdown when the renderer is
// available and as plain text otherwise.
func printAnswer(msg *biotypes.Message) {
	if msg.IsError {
		fmt.Println(errorStyle.Render(msg.Text))
		return
	}

	render, err := services.GetGlobalRenderService()
	if err == nil {
		if rendered, renderErr := render.Render(msg.Text); renderErr == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Println(msg.Text)
}

func printArticles(articles []biotypes.Article) {
	if len(articles) == 0 {
		return
	}
	fmt.Println(articleStyle.Render("Related articles:"))
	for _, article := range articles {
		line := "  - " + article.Title
		if article.Year != 0 {
			line += fmt.Sprintf(" (%d)", article.Year)
		}
		fmt.Println(articleStyle.Render(line))
	}
}

func handleSendError(err error) {
	switch {
	case errors.Is(err, services.ErrNoUser):
		fmt.Fprintln(os.Stderr, errorStyle.Render(`Not signed in: run "bioscope login --id <user-id>" first.`))
	case errors.Is(err, services.ErrBusy):
		fmt.Fprintln(os.Stderr, errorStyle.Render("A message is still in flight."))
	case errors.Is(err, services.ErrEmptyMessage):
		// Nothing to do for an empty prompt.
	default:
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
	}
}
