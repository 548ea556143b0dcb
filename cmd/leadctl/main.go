package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"leadflow/internal/config"
	"leadflow/internal/crmclient"
)

var (
	apiURL     string
	token      string
	jsonOutput bool
	verbose    bool

	cfg       *config.ClientConfig
	crmClient *crmclient.Client
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "leadctl <command>",
	Short:         "Work the CRM lead pipeline from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		c, err := config.LoadClientConfig()
		if err != nil {
			return err
		}
		cfg = c
		if cmd.Flags().Changed("api-url") {
			cfg.APIBaseURL = apiURL
		}
		if cmd.Flags().Changed("token") {
			cfg.Token = token
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		crmClient = crmclient.New(cfg.APIBaseURL, cfg.Token, cfg.RequestTimeout)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "CRM API base URL (default $LEADFLOW_API_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (default $LEADFLOW_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log workflow decisions to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "leads", Title: "Leads:"},
		&cobra.Group{ID: "catalog", Title: "Catalog:"},
		&cobra.Group{ID: "session", Title: "Session:"},
	)

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(bulkCmd)
	rootCmd.AddCommand(campaignsCmd)
	rootCmd.AddCommand(statusesCmd)
	rootCmd.AddCommand(loginCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if h := errorHint(err); h != "" {
			fmt.Fprintln(os.Stderr, h)
		}
		os.Exit(1)
	}
}

func errorHint(err error) string {
	code, ok := crmclient.HTTPStatusCode(err)
	if !ok {
		return ""
	}
	switch code {
	case http.StatusUnauthorized:
		return "Session expired or missing; run leadctl login"
	case http.StatusForbidden:
		return "Your account cannot change this lead"
	}
	return ""
}
