package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/noether/internal/dataset"
	"github.com/born-ml/noether/internal/envconfig"
)

func newScoreCmd() *cobra.Command {
	var (
		dataDir string
		files   string
		batch   int
		count   int
		show    int
	)

	cmd := &cobra.Command{
		Use:   "score CHECKPOINT",
		Short: "Score a trained checkpoint on CIFAR-10 images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batch <= 0 {
				return fmt.Errorf("--batch must be positive")
			}
			paths, err := batchPaths(dataDir, files)
			if err != nil {
				return err
			}
			set, err := dataset.LoadCIFAR10(cmd.Context(), paths...)
			if err != nil {
				return err
			}

			m := newModel(batch)
			if _, err := m.load(args[0]); err != nil {
				return err
			}

			score, err := m.score(set, count)
			if err != nil {
				return err
			}
			slog.Debug("scored", "images", score.Total(), "correct", score.Correct())

			out := cmd.OutOrStdout()
			if show > 0 {
				score.Render(out, dataset.LabelName, show)
			}
			fmt.Fprintf(out, "Score: %s\n", score)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataDir, "data", envconfig.DataDir(), "Directory holding the CIFAR-10 batch files")
	f.StringVar(&files, "files", "test_batch.bin", "Comma-separated batch files to score")
	f.IntVar(&batch, "batch", 8, "Minibatch size")
	f.IntVar(&count, "count", 1000, "Images to score")
	f.IntVar(&show, "show", 10, "Predictions to print")

	return cmd
}
