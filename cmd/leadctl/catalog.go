package main

import (
	"context"

	"github.com/spf13/cobra"

	"leadflow/internal/domain"
	"leadflow/internal/pagination"
	"leadflow/internal/transition"
)

var statusesCmd = &cobra.Command{
	Use:     "statuses",
	Short:   "List lead statuses and the reminder each one needs",
	GroupID: "catalog",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := transition.LoadCatalog(context.Background(), crmClient, logger)
		if jsonOutput {
			printJSON(cat)
			return nil
		}
		printStatusTable(cat)
		return nil
	},
}

var campaignsCmd = &cobra.Command{
	Use:     "campaigns",
	Short:   "List campaigns",
	GroupID: "catalog",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		ctx := context.Background()

		list := pagination.New[domain.Campaign](
			pagination.FetchFunc[domain.Campaign](crmClient.FetchCampaigns),
			pagination.Config{PageSize: cfg.PageSize, Timeout: cfg.RequestTimeout, Logger: logger},
		)
		defer list.Close()

		if err := list.SetFilter(ctx, domain.Filter{Search: search}); err != nil {
			return err
		}
		for {
			started, err := list.LoadMore(ctx)
			if err != nil {
				return err
			}
			if !started {
				break
			}
		}

		if jsonOutput {
			printJSON(list.Items())
			return nil
		}
		printCampaignTable(list.Items())
		return nil
	},
}

func init() {
	campaignsCmd.Flags().StringP("search", "q", "", "search campaign name")
}
