package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:     "login",
	Short:   "Sign in and print a token for LEADFLOW_TOKEN",
	GroupID: "session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		tok, err := crmClient.Login(context.Background(), email, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		actor, err := crmClient.Actor()
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]string{"token": tok, "actor": actor})
			return nil
		}
		fmt.Printf("Signed in as %s\n", actor)
		fmt.Printf("export LEADFLOW_TOKEN=%s\n", tok)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
