package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/setops/internal/upload"
	"github.com/spf13/cobra"
)

func newPushCmd(g *globalFlags) *cobra.Command {
	var (
		serverURL string
		apiKey    string
		stateDir  string
		gym       string
		dryRun    bool
	)

	c := &cobra.Command{
		Use:   "push DIR",
		Short: "Upload new or changed exports in DIR to a running setops server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if serverURL == "" && !dryRun {
				return fmt.Errorf("--server is required (or use --dry-run)")
			}
			if apiKey == "" {
				apiKey = os.Getenv("SETOPS_AUTH_API_KEY")
			}
			if stateDir == "" {
				stateDir = filepath.Join(args[0], ".setops")
			}

			ledger, err := upload.OpenLedger(stateDir)
			if err != nil {
				return err
			}
			defer ledger.Close()

			up := upload.New(upload.NewClient(serverURL, apiKey), ledger, args[0], gym, dryRun, log)
			stats, err := up.Run(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "files: %d total, %d uploaded, %d skipped, %d errored\n",
				stats.FilesTotal, stats.FilesUploaded, stats.FilesSkipped, stats.FilesErrored)
			if err != nil {
				return err
			}
			if stats.FilesUploaded > 0 {
				fmt.Fprintf(out, "server now holds %d climbs\n", stats.Climbs)
			}
			codes := make([]string, 0, len(stats.Unrecognized))
			for code := range stats.Unrecognized {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			for _, code := range codes {
				if labels := stats.Unrecognized[code]; len(labels) > 0 {
					fmt.Fprintf(out, "unrecognized %s: %s\n", code, strings.Join(labels, ", "))
				}
			}
			return nil
		},
	}
	c.Flags().StringVar(&serverURL, "server", "", "setops server URL (e.g. https://setops.tail1234.ts.net)")
	c.Flags().StringVar(&apiKey, "api-key", "", "API key (defaults to $SETOPS_AUTH_API_KEY)")
	c.Flags().StringVar(&stateDir, "state-dir", "", "where to track sent files (default DIR/.setops)")
	c.Flags().StringVar(&gym, "gym", "", "gym code for performance files whose names carry none")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be sent without uploading")
	return c
}
