package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/usrn-labs/streetwise/internal/ingest"
)

var loadStreetsUSRNField string

func init() {
	loadStreetsCmd.Flags().StringVar(&loadStreetsUSRNField, "usrn-field", "usrn", "shapefile attribute carrying the USRN")
	rootCmd.AddCommand(loadStreetsCmd)
}

var loadStreetsCmd = &cobra.Command{
	Use:   "loadstreets <shapefile>",
	Short: "Load street geometries from an OS Open Roads shapefile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		streets, err := ingest.ReadStreets(args[0], loadStreetsUSRNField)
		if err != nil {
			return err
		}
		if len(streets) == 0 {
			return eris.Errorf("no streets with a USRN in %s", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.LoadStreets(ctx, streets)
		if err != nil {
			return err
		}
		zap.L().Info("streets loaded", zap.Int("rows", n), zap.String("source", args[0]))
		return nil
	},
}
