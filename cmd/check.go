package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	checkClaim string
	checkMedia string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fact-check a single claim and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(checkClaim) == "" && checkMedia == "" {
			return eris.New("--claim or --media is required")
		}
		if checkMedia != "" {
			if _, err := os.Stat(checkMedia); err != nil {
				return eris.Wrap(err, "media file")
			}
		}

		ctx := cmd.Context()
		env, err := initServices(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, uuid.NewString(), checkClaim, checkMedia)
		if err != nil {
			return eris.Wrap(err, "check claim")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkClaim, "claim", "", "claim text to verify")
	checkCmd.Flags().StringVar(&checkMedia, "media", "", "path to an image or video to analyze")
	rootCmd.AddCommand(checkCmd)
}
