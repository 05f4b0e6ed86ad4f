package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"bantayani/internal/models"
	"bantayani/internal/review"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func reviewCommand(settings *Settings) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Work through pending detections (reviewers)",
	}

	var note string
	decide := func(use, short string, status models.DetectionStatus) *cobra.Command {
		cmd := &cobra.Command{
			Use:   use + " [ID]",
			Short: short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				q, err := loadQueue(cmd.Context(), settings, args)
				if err != nil {
					return err
				}
				cur, _ := q.Current()
				var d *models.Detection
				if status == models.StatusVerified {
					d, err = q.Verify(cmd.Context(), note)
				} else {
					d, err = q.Reject(cmd.Context(), note)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", cur.PestType, d.ID, d.Status)
				if next, ok := q.Current(); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Next: %s\n", describe(next))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				}
				return nil
			},
		}
		cmd.Flags().StringVar(&note, "note", "", "Reviewer note")
		return cmd
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show pending detections, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := loadQueue(cmd.Context(), settings, nil)
			if err != nil {
				return err
			}
			printQueue(cmd.OutOrStdout(), q)
			return nil
		},
	}

	requestInfoCmd := &cobra.Command{
		Use:   "request-info ID MESSAGE...",
		Short: "Ask the farmer for more detail; the detection stays pending",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := loadQueue(cmd.Context(), settings, args[:1])
			if err != nil {
				return err
			}
			if err := q.RequestInfo(cmd.Context(), strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Message sent.")
			return nil
		},
	}

	reviewCmd.AddCommand(
		listCmd,
		decide("verify", "Confirm the AI's identification", models.StatusVerified),
		decide("reject", "Reject the identification", models.StatusRejected),
		requestInfoCmd,
	)
	return reviewCmd
}

func loadQueue(ctx context.Context, settings *Settings, args []string) (*review.Queue, error) {
	c, err := settings.requireSession()
	if err != nil {
		return nil, err
	}
	list, err := c.ListDetections(ctx, models.DetectionFilter{Status: models.StatusPending})
	if err != nil {
		return nil, err
	}
	q := review.NewQueue(c)
	q.Refresh(list)
	if len(args) == 1 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid id %q", models.ErrValidation, args[0])
		}
		if err := q.Select(id); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func describe(d models.DetectionView) string {
	who := "unknown farmer"
	if d.FarmerName != nil {
		who = *d.FarmerName
	}
	return fmt.Sprintf("%s  %-22s %-8s %3.0f%%  %s  %s",
		d.ID, d.PestType, d.CropType, d.Confidence*100, who, d.CreatedAt.Format("2006-01-02 15:04"))
}

func printQueue(out io.Writer, q *review.Queue) {
	if q.Len() == 0 {
		fmt.Fprintln(out, "No pending detections.")
		return
	}
	for _, d := range q.Items() {
		fmt.Fprintln(out, describe(d))
	}
}
