package main

import (
	"fmt"
	"io"

	"bantayani/internal/models"
	"bantayani/internal/viewmodel"

	"github.com/spf13/cobra"
)

func printStats(out io.Writer, s models.Stats) {
	fmt.Fprintf(out, "total %d  pending %d  verified %d  rejected %d\n", s.Total, s.Pending, s.Verified, s.Rejected)
}

func statsCommand(settings *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show detection counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := settings.requireSession()
			if err != nil {
				return err
			}
			s, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func watchCommand(settings *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow live changes to detections, advisories and messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := settings.requireSession()
			if err != nil {
				return err
			}
			me, err := c.Me(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			store := viewmodel.NewStore(c, c, me.Role)
			defer store.Reset()
			if err := store.Load(cmd.Context()); err != nil {
				fmt.Fprintln(out, "some data could not be loaded:", err)
			}
			printStats(out, store.Stats())

			store.OnChange = func(table string) {
				switch table {
				case models.TableDetections:
					printStats(out, store.Stats())
				case models.TableAdvisories:
					fmt.Fprintf(out, "%d active advisories\n", len(store.ActiveAdvisories()))
				case models.TableMessages:
					fmt.Fprintf(out, "%d unread messages\n", store.UnreadCount(me.ID))
				case models.TableFarms:
					fmt.Fprintf(out, "%d saved farms\n", len(store.Farms()))
				}
			}
			return store.Start(cmd.Context())
		},
	}
}
