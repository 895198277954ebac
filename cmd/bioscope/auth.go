package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bioscope/internal/config"
	"bioscope/internal/logger"
	"bioscope/internal/store"
	"bioscope/pkg/biotypes"
)

var (
	loginUserID string
	loginName   string
	loginEmail  string
	loginToken  string
)

// loginCmd stores the user profile and credential that every send requires.
// There is no interactive auth flow; the id and token come from the service's
// account page.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store your user profile and credential",
	Long: `Store your user profile and bearer token locally. Sending messages requires
a stored user id; get your id and token from the assistant service's account page.`,
	Run: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored user profile and credential",
	Run:   runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&loginUserID, "id", "", "User id issued by the assistant service")
	loginCmd.Flags().StringVar(&loginName, "name", "", "Display name")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Bearer token for the assistant service")
	if err := loginCmd.MarkFlagRequired("id"); err != nil {
		fmt.Fprintf(os.Stderr, "Error marking id flag required: %v\n", err)
		os.Exit(1)
	}
}

func runLogin(_ *cobra.Command, _ []string) {
	identityStore, err := openIdentityStore()
	if err != nil {
		logger.Fatal("Failed to open session store", "error", err)
	}

	profile := &biotypes.UserProfile{ID: loginUserID, Name: loginName, Email: loginEmail}
	if err := identityStore.SetUserProfile(profile); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Could not store profile: "+err.Error()))
		os.Exit(1)
	}
	if loginToken != "" {
		if err := identityStore.SetToken(loginToken); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Could not store token: "+err.Error()))
			os.Exit(1)
		}
	}
	fmt.Printf("Signed in as %s.\n", loginUserID)
}

func runLogout(_ *cobra.Command, _ []string) {
	identityStore, err := openIdentityStore()
	if err != nil {
		logger.Fatal("Failed to open session store", "error", err)
	}

	if err := identityStore.ClearAuth(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Could not clear credentials: "+err.Error()))
		os.Exit(1)
	}
	fmt.Println("Signed out.")
}

// openIdentityStore opens the durable session store without starting the full
// service stack; login and logout only touch local state.
func openIdentityStore() (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return store.New(cfg.DataDir)
}
