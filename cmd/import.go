package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/order-reports/internal/orders"
	"github.com/ginjaninja78/order-reports/internal/source"
	"github.com/ginjaninja78/order-reports/internal/store"
)

var importOpts struct {
	profile string
	batchID string
	list    bool
}

var importCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Load exports into the order store",
	Long: `Load one or more CSV or XLSX exports into the SQLite order store. Each file
becomes one import batch. With --list, print the stored batches instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.New(mainConfig.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		out := cmd.OutOrStdout()

		if importOpts.list {
			batches, err := st.Batches(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range batches {
				fmt.Fprintf(out, "%s  %s  %d entries\n", b.ID, b.ImportedAt.Local().Format("2006-01-02 15:04"), b.Entries)
			}
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("no files given")
		}
		if importOpts.batchID != "" && len(args) > 1 {
			return fmt.Errorf("--batch can only be used with a single file")
		}

		for _, path := range args {
			profile, err := profileForFile(path, importOpts.profile)
			if err != nil {
				return err
			}

			entries, err := source.Load(path, profile, orders.Filter{})
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			batchID := importOpts.batchID
			if batchID == "" {
				batchID = uuid.New().String()
			}

			n, err := st.ImportEntries(cmd.Context(), batchID, entries)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			logger.Info("Imported export", "file", path, "profile", profile.ProfileCode, "batch", batchID, "entries", n)
			fmt.Fprintf(out, "%s: %d entries (batch %s)\n", path, n, batchID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importOpts.profile, "profile", "", "Source profile code (default: match by file name)")
	importCmd.Flags().StringVar(&importOpts.batchID, "batch", "", "Batch id (default: a new UUID)")
	importCmd.Flags().BoolVar(&importOpts.list, "list", false, "List stored import batches")
}
