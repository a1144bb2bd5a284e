package main

import (
	"context"
	"fmt"
	"io"

	"github.com/smartwork/assistant/internal/modules/system/migrate"
	"github.com/smartwork/assistant/internal/store"
	"github.com/spf13/cobra"
)

var (
	transferFrom string
	transferTo   string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Move every note, inventory item and settings record to another user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return runTransfer(ctx, st, cmd.OutOrStdout(), transferFrom, transferTo)
		})
	},
}

func runTransfer(ctx context.Context, st store.Store, w io.Writer, from, to string) error {
	res, err := migrate.NewService(st, logger).Transfer(ctx, from, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Transferred %d notes and %d features from %s to %s", res.Notes, res.Features, from, to)
	if res.Settings {
		fmt.Fprint(w, " (settings moved)")
	}
	fmt.Fprintln(w)
	return nil
}

func init() {
	transferCmd.Flags().StringVar(&transferFrom, "from", "", "Source user id")
	transferCmd.Flags().StringVar(&transferTo, "to", "", "Target user id")
	_ = transferCmd.MarkFlagRequired("from")
	_ = transferCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(transferCmd)
}
