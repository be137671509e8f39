package main

import (
	"fmt"

	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/spf13/cobra"
)

func suppressionsCmd() *cobra.Command {
	var businessID string

	cmd := &cobra.Command{
		Use:   "suppressions",
		Short: "List unsubscribed contacts of a business",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			items, err := repository.NewSuppressionRepository(db).List(cmd.Context(), businessID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-6s  %-32s  %-24s  %s\n", "Chan", "Contact", "Reason", "Since")
			for _, s := range items {
				fmt.Fprintf(out, "%-6s  %-32s  %-24s  %s\n", s.Channel, s.Contact, s.Reason, s.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&businessID, "business", "", "business id")
	_ = cmd.MarkFlagRequired("business")
	return cmd
}

func eventsCmd() *cobra.Command {
	var businessID, requestID string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the event history of a review request",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			events, err := repository.NewEventRepository(db).ListForRequest(cmd.Context(), businessID, requestID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range events {
				fmt.Fprintf(out, "%s  %-13s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Type, e.Detail)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&businessID, "business", "", "business id")
	cmd.Flags().StringVar(&requestID, "request", "", "review request id")
	_ = cmd.MarkFlagRequired("business")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}
