package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/usrn-labs/streetwise/internal/collection"
	"github.com/usrn-labs/streetwise/pkg/osngd"
)

var collectionsRemote bool

func init() {
	collectionsCmd.Flags().BoolVar(&collectionsRemote, "remote", false, "list collections from the NGD API instead of the local registry")
	rootCmd.AddCommand(collectionsCmd)
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the feature collections the engine can query",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()

		if collectionsRemote {
			client := osngd.NewClient(cfg.OS.Key, osngd.WithBaseURL(cfg.OS.BaseURL))
			remote, err := client.Collections(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "ID\tTITLE")
			for _, c := range remote {
				fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Title)
			}
			return nil
		}

		fmt.Fprintln(w, "ID\tDOMAIN\tMODE")
		for _, spec := range collection.Specs() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", spec.ID, spec.Domain, spec.Mode)
		}
		return nil
	},
}
