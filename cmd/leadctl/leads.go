package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"leadflow/internal/arbiter"
	"leadflow/internal/clock"
	"leadflow/internal/domain"
	"leadflow/internal/pagination"
	"leadflow/internal/screen"
	"leadflow/internal/transition"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List leads",
	GroupID: "leads",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, _ := cmd.Flags().GetInt("pages")
		filter := filterFlags(cmd)
		ctx := context.Background()

		s, err := openScreen(ctx, filter.CampaignID != "")
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Open(ctx, filter); err != nil {
			return err
		}
		for i := 1; i < pages; i++ {
			started, err := s.LoadMore(ctx)
			if err != nil {
				return err
			}
			if !started {
				break
			}
		}

		if jsonOutput {
			printJSON(s.Items())
			return nil
		}
		printLeadTable(s.Items(), s.Cursor().TotalCount)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <lead-id>",
	Short:   "Show one lead",
	GroupID: "leads",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		l, err := crmClient.GetLead(ctx, args[0])
		if err != nil {
			return err
		}
		var comments []domain.Comment
		if withComments, _ := cmd.Flags().GetBool("comments"); withComments {
			if comments, err = crmClient.FetchComments(ctx, l.ID); err != nil {
				return err
			}
		}
		if jsonOutput {
			if comments != nil {
				printJSON(struct {
					domain.Lead
					Comments []domain.Comment `json:"comments"`
				}{l, comments})
				return nil
			}
			printJSON(l)
			return nil
		}
		printLead(l)
		if len(comments) > 0 {
			fmt.Println()
			printComments(comments)
		}
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:     "update <lead-id>",
	Short:   "Change a lead's status, source, tags, comment or requirements",
	GroupID: "leads",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		actor, err := crmClient.Actor()
		if err != nil {
			return err
		}
		l, err := crmClient.GetLead(ctx, args[0])
		if err != nil {
			return err
		}
		cat := transition.LoadCatalog(ctx, crmClient, logger)

		ctrl := transition.New(l, transition.Options{
			Updater:         crmClient,
			Arbiter:         arbiter.New(clock.Real(), cfg.ModalCloseDelay, arbiter.WithLogger(logger)),
			Catalog:         cat,
			Actor:           actor,
			ExemptLabels:    cfg.ExemptLabels,
			MinCommentWords: cfg.MinCommentWords,
			Timeout:         cfg.RequestTimeout,
			Logger:          logger,
		})
		if err := draftFromFlags(ctx, cmd, ctrl, cat); err != nil {
			return err
		}

		res, err := runSubmit(ctx, cmd, ctrl)
		if err != nil {
			return err
		}
		switch res.Outcome {
		case transition.OutcomeNoChange:
			fmt.Println("Nothing to update")
		case transition.OutcomeCommitted:
			if jsonOutput {
				printJSON(res.Lead)
			} else {
				printLead(res.Lead)
			}
			if res.ClosureNotice {
				fmt.Println("\nLead closed: create the deal in the CRM.")
			}
		}
		return nil
	},
}

var bulkCmd = &cobra.Command{
	Use:     "bulk <lead-id>...",
	Short:   "Apply one change to several leads",
	GroupID: "leads",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		actor, err := crmClient.Actor()
		if err != nil {
			return err
		}
		bulk := transition.NewBulk(args, transition.BulkOptions{
			Updater:         crmClient,
			Actor:           actor,
			ExemptLabels:    cfg.ExemptLabels,
			MinCommentWords: cfg.MinCommentWords,
			Timeout:         cfg.RequestTimeout,
			Logger:          logger,
		})

		if id, _ := cmd.Flags().GetString("status"); id != "" {
			cat := transition.LoadCatalog(ctx, crmClient, logger)
			opt, ok := cat.Status(id)
			if !ok {
				return fmt.Errorf("unknown status %q", id)
			}
			bulk.SetStatus(opt)
		}
		if id, _ := cmd.Flags().GetString("source"); id != "" {
			src, err := lookupSource(ctx, id)
			if err != nil {
				return err
			}
			bulk.SetSource(src)
		}
		if ids, _ := cmd.Flags().GetStringSlice("tag"); len(ids) > 0 {
			tags, err := lookupTags(ctx, ids)
			if err != nil {
				return err
			}
			bulk.SetTags(tags)
		}
		if op, _ := cmd.Flags().GetString("tag-op"); op != "" {
			bulk.SetTagOperation(domain.TagOperation(op))
		}
		if comment, _ := cmd.Flags().GetString("comment"); comment != "" {
			bulk.SetComment(comment)
		}

		res, err := bulk.Submit(ctx)
		if err != nil {
			return err
		}
		if res.Outcome == transition.OutcomeNoChange {
			fmt.Println("Nothing to update")
			return nil
		}
		fmt.Printf("Updated %d leads\n", len(args))
		if res.ClosureNotice {
			fmt.Println("Leads closed: create the deals in the CRM.")
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("status", "", "filter by status id")
	listCmd.Flags().String("source", "", "filter by source id")
	listCmd.Flags().String("tag", "", "filter by tag id")
	listCmd.Flags().String("campaign", "", "list the leads of a campaign")
	listCmd.Flags().StringP("search", "q", "", "search name or phone")
	listCmd.Flags().Int("pages", 1, "number of pages to load")

	showCmd.Flags().Bool("comments", false, "include the comment history")

	updateCmd.Flags().String("status", "", "new status id")
	updateCmd.Flags().String("source", "", "new source id")
	updateCmd.Flags().StringSlice("tag", nil, "replace tags with these ids (repeatable)")
	updateCmd.Flags().Bool("clear-tags", false, "remove every tag")
	updateCmd.Flags().StringP("comment", "m", "", "comment to record")
	updateCmd.Flags().StringArray("set", nil, "requirement value (key=value, repeatable)")
	updateCmd.Flags().Bool("reminder-set", false, "confirm a follow-up reminder was scheduled")
	updateCmd.Flags().Bool("meeting-booked", false, "confirm the meeting was booked")

	bulkCmd.Flags().String("status", "", "new status id")
	bulkCmd.Flags().String("source", "", "new source id")
	bulkCmd.Flags().StringSlice("tag", nil, "tag ids (repeatable)")
	bulkCmd.Flags().String("tag-op", "", "add or remove the tags")
	bulkCmd.Flags().StringP("comment", "m", "", "comment to record on every lead")
}

func filterFlags(cmd *cobra.Command) domain.Filter {
	var f domain.Filter
	f.StatusID, _ = cmd.Flags().GetString("status")
	f.SourceID, _ = cmd.Flags().GetString("source")
	f.TagID, _ = cmd.Flags().GetString("tag")
	f.CampaignID, _ = cmd.Flags().GetString("campaign")
	f.Search, _ = cmd.Flags().GetString("search")
	return f
}

func openScreen(ctx context.Context, campaign bool) (*screen.LeadScreen, error) {
	actor, _ := crmClient.Actor()
	fetcher := pagination.FetchFunc[domain.Lead](crmClient.FetchLeads)
	if campaign {
		fetcher = crmClient.FetchCampaignLeads
	}
	return screen.NewLeadScreen(ctx, screen.Options{
		Backend:         crmClient,
		Fetcher:         fetcher,
		Arbiter:         arbiter.New(clock.Real(), cfg.ModalCloseDelay, arbiter.WithLogger(logger)),
		Actor:           actor,
		PageSize:        cfg.PageSize,
		Threshold:       cfg.ScrollThreshold,
		Timeout:         cfg.RequestTimeout,
		MinCommentWords: cfg.MinCommentWords,
		ExemptLabels:    cfg.ExemptLabels,
		Logger:          logger,
	})
}

func draftFromFlags(ctx context.Context, cmd *cobra.Command, ctrl *transition.Controller, cat transition.Catalog) error {
	if id, _ := cmd.Flags().GetString("status"); id != "" {
		opt, ok := cat.Status(id)
		if !ok {
			return fmt.Errorf("unknown status %q", id)
		}
		if err := ctrl.SetStatus(opt); err != nil {
			return err
		}
	}
	if id, _ := cmd.Flags().GetString("source"); id != "" {
		src, err := lookupSource(ctx, id)
		if err != nil {
			return err
		}
		if err := ctrl.SetSource(src); err != nil {
			return err
		}
	}
	clearTags, _ := cmd.Flags().GetBool("clear-tags")
	if ids, _ := cmd.Flags().GetStringSlice("tag"); len(ids) > 0 || clearTags {
		tags, err := lookupTags(ctx, ids)
		if err != nil {
			return err
		}
		if err := ctrl.SetTags(tags); err != nil {
			return err
		}
	}
	if comment, _ := cmd.Flags().GetString("comment"); comment != "" {
		if err := ctrl.SetComment(comment); err != nil {
			return err
		}
	}
	sets, _ := cmd.Flags().GetStringArray("set")
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return fmt.Errorf("invalid requirement %q (expected key=value)", kv)
		}
		if err := ctrl.SetRequirement(strings.TrimSpace(k), v); err != nil {
			return err
		}
	}
	return nil
}

// runSubmit drives the controller to a final outcome, answering the
// optional-reminder detour and contingent actions from the command flags.
func runSubmit(ctx context.Context, cmd *cobra.Command, ctrl *transition.Controller) (transition.Result, error) {
	reminderSet, _ := cmd.Flags().GetBool("reminder-set")
	meetingBooked, _ := cmd.Flags().GetBool("meeting-booked")

	res, err := ctrl.Submit(ctx)
	for err == nil {
		switch res.Outcome {
		case transition.OutcomeCommentOpened:
			if reminderSet {
				res, err = ctrl.RequestReminder()
			} else {
				res, err = ctrl.Submit(ctx)
			}
			continue
		case transition.OutcomeDeferred:
			p := res.Pending
			confirmed := (p.Kind == transition.KindMeeting && meetingBooked) ||
				(p.Kind == transition.KindReminder && reminderSet)
			if !confirmed {
				_ = ctrl.Cancel(p.Token)
				flag := "--reminder-set"
				if p.Kind == transition.KindMeeting {
					flag = "--meeting-booked"
				}
				fmt.Fprintf(os.Stderr, "Moving to %s needs a %s first; schedule it and re-run with %s\n",
					p.Target.Label, p.Kind, flag)
				return res, errors.New("contingent action required")
			}
			res, err = ctrl.Resolve(ctx, p.Token)
			continue
		}
		return res, nil
	}
	return res, err
}

func lookupSource(ctx context.Context, id string) (domain.Source, error) {
	sources, err := crmClient.FetchSources(ctx)
	if err != nil {
		return domain.Source{}, err
	}
	for _, s := range sources {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Source{}, fmt.Errorf("unknown source %q", id)
}

func lookupTags(ctx context.Context, ids []string) ([]domain.Tag, error) {
	out := []domain.Tag{}
	if len(ids) == 0 {
		return out, nil
	}
	all, err := crmClient.FetchTags(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Tag, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown tag %q", id)
		}
		out = append(out, t)
	}
	return out, nil
}
