package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/smartwork/assistant/internal/store"
	"github.com/spf13/cobra"
)

var checkSettingsUsers []string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Inspect stored data",
}

var checkUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users with their record counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return runCheckUsers(ctx, st, cmd.OutOrStdout())
		})
	},
}

var checkSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print keyword settings for the given users, or for everyone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return runCheckSettings(ctx, st, cmd.OutOrStdout(), checkSettingsUsers)
		})
	},
}

func runCheckUsers(ctx context.Context, st store.Store, w io.Writer) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER ID\tEMAIL\tNAME\tNOTES\tFEATURES\tSETTINGS")
	for _, u := range users {
		stats, err := st.UserStats(ctx, u.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%t\n", u.ID, u.Email, u.Name, stats.Notes, stats.Features, stats.Settings)
	}
	return tw.Flush()
}

func runCheckSettings(ctx context.Context, st store.Store, w io.Writer, userIDs []string) error {
	if len(userIDs) == 0 {
		all, err := st.ListSettings(ctx)
		if err != nil {
			return err
		}
		for _, s := range all {
			userIDs = append(userIDs, s.UserID)
		}
	}
	for _, id := range userIDs {
		s, err := st.GetUserSettings(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "--- %s ---\n", id)
		if len(s.SubMenus) == 0 {
			fmt.Fprintln(w, "Not found")
			continue
		}
		raw, err := json.MarshalIndent(s.SubMenus, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(raw))
	}
	return nil
}

func init() {
	checkSettingsCmd.Flags().StringSliceVar(&checkSettingsUsers, "user", nil, "User id to inspect (repeatable)")
	checkCmd.AddCommand(checkUsersCmd, checkSettingsCmd)
	rootCmd.AddCommand(checkCmd)
}
