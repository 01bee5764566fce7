package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/usrn-labs/streetwise/internal/model"
)

var (
	analysisCollections []string
	analysisSummarize   bool
)

func init() {
	for _, cmd := range []*cobra.Command{streetCmd, landuseCmd, collabCmd} {
		cmd.Flags().StringSliceVar(&analysisCollections, "collections", nil, "override the collection selection")
		cmd.Flags().BoolVar(&analysisSummarize, "summarize", false, "append a model-written summary")
		rootCmd.AddCommand(cmd)
	}
}

var streetCmd = &cobra.Command{
	Use:   "street <usrn>",
	Short: "Street analysis: designations, network and works history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd.Context(), args[0], model.AnalysisStreet)
	},
}

var landuseCmd = &cobra.Command{
	Use:   "landuse <usrn>",
	Short: "Land-use analysis: sites and buildings around the street",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd.Context(), args[0], model.AnalysisLandUse)
	},
}

var collabCmd = &cobra.Command{
	Use:   "collab <usrn>",
	Short: "Collaborative street-works recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd.Context(), args[0], model.AnalysisCollaborative)
	},
}

func runAnalysis(ctx context.Context, usrn string, analysisType model.AnalysisType) error {
	svc, st, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := svc.Run(ctx, usrn, analysisType, analysisCollections)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if analysisSummarize {
		s := buildSummarizer()
		if s == nil {
			return fmt.Errorf("summarize requested but anthropic.key is not configured")
		}
		text, err := s.Summarize(ctx, out)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, text)
	}
	return nil
}
