package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"bantayani/internal/capture"
	"bantayani/internal/client"
	"bantayani/internal/imageproc"
	"bantayani/internal/models"
	"bantayani/internal/offline"

	"github.com/spf13/cobra"
)

type scanOptions struct {
	crop      string
	latitude  float64
	longitude float64
	farm      int
	note      string
}

func scanCommand(settings *Settings) *cobra.Command {
	opts := scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan IMAGE...",
		Short: "Identify pests in up to 4 photos and submit them as a report",
		Args:  cobra.RangeArgs(1, capture.MaxImages),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := settings.requireSession()
			if err != nil {
				return err
			}
			q, err := settings.openQueue()
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), cmd.OutOrStdout(), c, q, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.crop, "crop", "", "Crop type, e.g. Rice")
	cmd.Flags().Float64Var(&opts.latitude, "lat", 0, "GPS latitude")
	cmd.Flags().Float64Var(&opts.longitude, "lon", 0, "GPS longitude")
	cmd.Flags().IntVar(&opts.farm, "farm", 0, "Use a saved farm slot instead of GPS")
	cmd.Flags().StringVar(&opts.note, "note", "", "Note for the reviewer")
	_ = cmd.MarkFlagRequired("crop")
	return cmd
}

func runScan(ctx context.Context, out io.Writer, c *client.Client, q *offline.Queue, opts scanOptions, paths []string) error {
	locator := capture.FixedLocation{Latitude: opts.latitude, Longitude: opts.longitude}
	flow := capture.NewFlow(opts.crop, locator, c, c, q)

	if opts.farm > 0 {
		farm, err := findFarm(ctx, c, opts.farm)
		if err != nil {
			return err
		}
		if err := flow.UseFarm(farm); err != nil {
			return errors.New(capture.LocationMessage(err))
		}
	} else if err := flow.Locate(ctx); err != nil {
		return errors.New(capture.LocationMessage(err))
	}

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		frame, err := imageproc.Normalize(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := flow.Capture(frame); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Analyzing %d image(s)...\n", flow.ImageCount())
	if err := flow.Proceed(ctx); err != nil {
		return err
	}
	for i, r := range flow.Results() {
		fmt.Fprintf(out, "  [%d] %s (%.0f%%)\n", i+1, r.PestType, r.Confidence*100)
	}

	if err := flow.SetNote(opts.note); err != nil {
		return err
	}
	outcome, err := flow.Submit(ctx)
	if err != nil {
		return err
	}

	switch outcome {
	case capture.OutcomeSubmitted:
		fmt.Fprintln(out, "Report submitted for review.")
	case capture.OutcomeQueued:
		n, _ := q.Len()
		fmt.Fprintf(out, "Could not reach the server (%v). Report saved offline; %d waiting. Run `field sync` later.\n", flow.LastError(), n)
	}
	return nil
}

func findFarm(ctx context.Context, c *client.Client, slot int) (models.Farm, error) {
	farms, err := c.ListFarms(ctx)
	if err != nil {
		return models.Farm{}, err
	}
	for _, f := range farms {
		if f.Slot == slot {
			return f, nil
		}
	}
	return models.Farm{}, fmt.Errorf("%w: no saved farm in slot %d", models.ErrNotFound, slot)
}

func syncCommand(settings *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Submit reports saved while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := settings.requireSession()
			if err != nil {
				return err
			}
			q, err := settings.openQueue()
			if err != nil {
				return err
			}
			sent, err := q.Flush(cmd.Context(), func(ctx context.Context, r offline.Report) error {
				for _, in := range r.Inputs() {
					if _, err := c.CreateDetection(ctx, in); err != nil {
						return err
					}
				}
				return nil
			})
			left, _ := q.Len()
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d report(s), %d still queued.\n", sent, left)
			return err
		},
	}
}
