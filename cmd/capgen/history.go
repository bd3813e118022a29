package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jmallet/capgen/internal/api"
	"github.com/jmallet/capgen/internal/workflow"
)

func historyCmd() *cobra.Command {
	var page, limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your caption history",
		Long:  "Show the recent-caption list, or pages of the full history with --all.",
		Run: func(cmd *cobra.Command, args []string) {
			if !current.Authenticated() {
				exitOnError(errors.New("login to see your caption history"))
			}

			if all {
				showHistoryPage(page, limit)
				return
			}
			showRecent()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Page through the full history")
	cmd.Flags().IntVar(&page, "page", 1, "Page number (with --all)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Items per page (with --all)")
	return cmd
}

// showRecent goes through the sync so a dead network still shows the
// locally cached list.
func showRecent() {
	history := workflow.NewRecentHistory(client, openCache())

	items, err := history.Refresh(context.Background(), current, workflow.NewGeneration())
	if err != nil && len(items) == 0 {
		exitOnError(err)
	}
	if err != nil {
		color.Yellow("Service unreachable, showing last known captions.")
	}

	if len(items) == 0 {
		fmt.Println("No recent captions.")
		return
	}

	color.New(color.Bold).Println("Recent captions:")
	printItems(items)
}

func showHistoryPage(page, limit int) {
	res, err := client.History(context.Background(), current.Token, page, limit)
	if err != nil {
		exitOnError(err)
	}

	if len(res.Items) == 0 {
		fmt.Println("No captions on this page.")
		return
	}

	color.New(color.Bold).Printf("Captions (page %d of %d, %d total):\n", res.Page, res.TotalPages, res.Total)
	printItems(res.Items)
}

func printItems(items []api.HistoryItem) {
	for i, item := range items {
		fmt.Printf("  %d. %s\n", i+1, truncateStr(item.CaptionText, 70))
		fmt.Printf("     %s\n", item.ImageURL)
	}
}
