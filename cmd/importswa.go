package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/usrn-labs/streetwise/internal/ingest"
)

func init() {
	rootCmd.AddCommand(importSWACmd)
}

var importSWACmd = &cobra.Command{
	Use:   "importswa <register.xlsx>",
	Short: "Import the GeoPlace SWA code register for promoter sector lookup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		codes, err := ingest.ReadSWACodes(args[0])
		if err != nil {
			return err
		}
		if len(codes) == 0 {
			return eris.Errorf("no SWA codes in %s", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.ImportSWACodes(ctx, codes)
		if err != nil {
			return err
		}
		zap.L().Info("swa register imported", zap.Int("rows", n), zap.String("source", args[0]))
		return nil
	},
}
