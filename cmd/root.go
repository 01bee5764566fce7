package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/usrn-labs/streetwise/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "streetwise",
	Short: "USRN street intelligence engine",
	Long:  "Aggregates OS NGD designations, land use, street-works history and impact data for a USRN into one deterministic report, including the collaborative street-works signal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
