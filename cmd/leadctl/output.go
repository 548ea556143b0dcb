package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"leadflow/internal/domain"
	"leadflow/internal/transition"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func tagLabels(tags []domain.Tag) string {
	labels := make([]string, 0, len(tags))
	for _, t := range tags {
		labels = append(labels, t.Label)
	}
	return strings.Join(labels, ", ")
}

func printLeadTable(leads []domain.Lead, total *int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSOURCE\tTAGS\tCOMMENTS")
	for _, l := range leads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			l.ID, l.Name, l.Status.Label, l.Source.Label, tagLabels(l.Tags), l.VisibleCommentCount)
	}
	w.Flush()
	if total != nil {
		fmt.Printf("\n%d of %d leads\n", len(leads), *total)
	}
}

func printLead(l domain.Lead) {
	fmt.Printf("ID:          %s\n", l.ID)
	fmt.Printf("Name:        %s\n", l.Name)
	if l.Phone != "" {
		fmt.Printf("Phone:       %s\n", l.Phone)
	}
	fmt.Printf("Status:      %s\n", l.Status.Label)
	fmt.Printf("Source:      %s\n", l.Source.Label)
	if len(l.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", tagLabels(l.Tags))
	}
	if l.Description != "" {
		fmt.Printf("Description: %s\n", l.Description)
	}
	req := l.Requirements
	if req.Type != "" || req.Project != "" || req.Budget != "" {
		fmt.Printf("Needs:       type=%s project=%s budget=%s\n", req.Type, req.Project, req.Budget)
	}
	for k, v := range req.Dynamic {
		fmt.Printf("  %s: %s\n", k, v)
	}
	if l.LastContactedAt != nil {
		fmt.Printf("Contacted:   %s\n", l.LastContactedAt.Format("2006-01-02 15:04"))
	}
	if l.LastComment != nil {
		fmt.Printf("Comments:    %d (last by %s: %q)\n", l.VisibleCommentCount, l.LastComment.Author, l.LastComment.Content)
	}
}

func printComments(comments []domain.Comment) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tAUTHOR\tCOMMENT")
	for _, c := range comments {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.CreatedAt.Format("2006-01-02 15:04"), c.Author, c.Content)
	}
	w.Flush()
}

func printStatusTable(cat transition.Catalog) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tREMINDER")
	for _, s := range cat.Statuses {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Label, s.RequiresReminder)
	}
	w.Flush()
	if cat.StatusFallback {
		fmt.Fprintln(os.Stderr, "warning: status catalog unavailable")
	}
}

func printCampaignTable(campaigns []domain.Campaign) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLEADS")
	for _, c := range campaigns {
		fmt.Fprintf(w, "%s\t%s\t%d\n", c.ID, c.Name, c.LeadCount)
	}
	w.Flush()
}
