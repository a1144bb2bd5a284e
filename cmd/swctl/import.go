package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/smartwork/assistant/internal/modules/system/migrate"
	"github.com/smartwork/assistant/internal/store"
	"github.com/spf13/cobra"
)

var (
	importUser string
	importFile string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a legacy JSON export ({historyItems, userSettings, features}) for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return runImport(ctx, st, cmd.OutOrStdout(), importUser, f)
		})
	},
}

func runImport(ctx context.Context, st store.Store, w io.Writer, userID string, r io.Reader) error {
	var p migrate.Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return fmt.Errorf("decode export: %w", err)
	}
	res, err := migrate.NewService(st, logger).Import(ctx, userID, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Imported %d history items and %d features for %s", res.Notes, res.Features, userID)
	if res.Settings {
		fmt.Fprint(w, ", settings replaced")
	}
	fmt.Fprintln(w)
	return nil
}

func init() {
	importCmd.Flags().StringVar(&importUser, "user", "", "Owner of the imported records")
	importCmd.Flags().StringVar(&importFile, "file", "", "Path to the JSON export")
	_ = importCmd.MarkFlagRequired("user")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
