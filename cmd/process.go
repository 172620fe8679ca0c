package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/killallgit/highlight-api/pkg/config"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [path]",
	Short: "Extract highlights from a video file or directory",
	Long: `Run the extraction pipeline over a video file, or over every video
file in a directory.

Each video is segmented, transcribed, analyzed and classified; the
resulting highlights are embedded and stored for later retrieval.
One video failing does not stop the rest of the batch.

Example:
  highlight-api process ./videos
  highlight-api process ./videos/match.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := newPipeline(cfg, db)
	if err != nil {
		return err
	}

	// Cancel cleanly on Ctrl-C; the current file finishes, the rest are skipped
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := p.ProcessBatch(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed %d video(s)\n", len(result.Processed))
	for _, name := range result.Processed {
		fmt.Fprintf(out, "  ✓ %s\n", name)
	}
	for name, ferr := range result.Failed {
		fmt.Fprintf(out, "  ✗ %s: %v\n", name, ferr)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(out, "Skipped %d video(s) beyond the batch limit\n", result.Skipped)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d video(s) failed", len(result.Failed))
	}
	return nil
}
