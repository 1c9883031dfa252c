package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/driveguard/driveguard/internal/gdrive"
	"github.com/driveguard/driveguard/internal/tokenfile"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Google Drive in your browser",
		RunE:  runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove saved authentication token",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated account",
		RunE:  runWhoami,
	}
}

func runLogin(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	ts, err := gdrive.Login(ctx, resolvedCfg.CredentialsFile, resolvedCfg.TokenFile, openBrowser, logger)
	if err != nil {
		return err
	}

	// Cache the account email so whoami works offline.
	client, err := gdrive.NewClient(ctx, logger, option.WithTokenSource(ts))
	if err != nil {
		return err
	}

	account, err := client.About(ctx)
	if err != nil {
		return fmt.Errorf("fetching account info: %w", err)
	}

	if err := gdrive.SaveAccountMeta(resolvedCfg.TokenFile, account); err != nil {
		return err
	}

	statusf("Logged in as %s.\n", account.Email)

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	logger := buildLogger()

	if err := gdrive.Logout(resolvedCfg.TokenFile, logger); err != nil {
		return err
	}

	statusf("Logged out.\n")

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

func runWhoami(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	account, err := currentAccount(ctx, logger)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(whoamiOutput{Email: account.Email, DisplayName: account.DisplayName})
	}

	fmt.Printf("Logged in as %s\n", account.Email)

	return nil
}

// currentAccount answers whoami from the cached credential-store metadata,
// falling back to an API round trip for tokens saved before the email was
// cached.
func currentAccount(ctx context.Context, logger *slog.Logger) (*gdrive.Account, error) {
	meta, err := tokenfile.ReadMeta(resolvedCfg.TokenFile)
	if err != nil {
		return nil, err
	}

	if meta == nil {
		return nil, fmt.Errorf("not logged in — run 'driveguard login' first")
	}

	if email := meta[tokenfile.MetaAccount]; email != "" {
		return &gdrive.Account{Email: email}, nil
	}

	client, err := newDriveClient(ctx)
	if err != nil {
		return nil, err
	}

	account, err := client.About(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching account info: %w", err)
	}

	if err := gdrive.SaveAccountMeta(resolvedCfg.TokenFile, account); err != nil {
		logger.Warn("caching account email failed", "error", err)
	}

	return account, nil
}

// openBrowser launches the platform's default browser at url.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	default:
		return errors.New("unsupported platform for browser launch")
	}
}
