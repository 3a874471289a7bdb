package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/noether/internal/dataset"
	"github.com/born-ml/noether/internal/envconfig"
	"github.com/born-ml/noether/internal/report"
	"github.com/born-ml/noether/nn"
)

// trainOptions holds the train command's flags.
type trainOptions struct {
	dataDir     string
	files       string
	batch       int
	rounds      int
	reportEvery int
	scoreCount  int
	show        int
	checkpoint  string
	resume      string

	config nn.Config
}

func newTrainCmd() *cobra.Command {
	opts := trainOptions{config: nn.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the CIFAR-10 network",
		Long: `Train the CIFAR-10 network on the binary batch files.

Each round runs --report-every training iterations, then scores the first
--score images and prints the first --show predictions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.config.Seed = envconfig.Seed()
			}
			return runTrain(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataDir, "data", envconfig.DataDir(), "Directory holding the CIFAR-10 batch files")
	f.StringVar(&opts.files, "files", "data_batch_1.bin", "Comma-separated batch files to train on")
	f.IntVar(&opts.batch, "batch", 8, "Minibatch size")
	f.IntVar(&opts.rounds, "rounds", 10, "Number of training rounds")
	f.IntVar(&opts.reportEvery, "report-every", 256, "Training iterations per round")
	f.IntVar(&opts.scoreCount, "score", 100, "Images scored after each round")
	f.IntVar(&opts.show, "show", 10, "Predictions printed after each round")
	f.StringVar(&opts.checkpoint, "checkpoint", "", "Write a checkpoint to this path after every round")
	f.StringVar(&opts.resume, "resume", "", "Load parameters from this checkpoint before training")
	f.Float64Var(&opts.config.LearningRate, "lr", opts.config.LearningRate, "SGD learning rate")
	f.Float64Var(&opts.config.Momentum, "momentum", opts.config.Momentum, "SGD momentum")
	f.Float64Var(&opts.config.L2Decay, "l2", opts.config.L2Decay, "L2 weight decay")
	f.Int64Var(&opts.config.Seed, "seed", opts.config.Seed, "Weight initialization seed (default $NOETHER_SEED or 1)")

	return cmd
}

func runTrain(cmd *cobra.Command, opts trainOptions) error {
	if opts.batch <= 0 || opts.reportEvery <= 0 || opts.rounds < 0 {
		return fmt.Errorf("--batch and --report-every must be positive and --rounds non-negative")
	}

	paths, err := batchPaths(opts.dataDir, opts.files)
	if err != nil {
		return err
	}
	slog.Info("loading CIFAR-10", "files", paths)
	set, err := dataset.LoadCIFAR10(cmd.Context(), paths...)
	if err != nil {
		return err
	}
	if set.Len() < opts.batch {
		return fmt.Errorf("dataset has %d images, fewer than one minibatch of %d", set.Len(), opts.batch)
	}

	progress := report.NewLogReporter(slog.Default(), opts.reportEvery)
	m := newModel(opts.batch,
		nn.WithConfig(opts.config),
		nn.WithLogger(slog.Default()),
		nn.WithReporter(progress))

	done := 0
	if opts.resume != "" {
		header, err := m.load(opts.resume)
		if err != nil {
			return err
		}
		if header.Training != nil {
			done = int(header.Training.Iterations)
		}
	}

	slog.Info("training",
		"images", set.Len(),
		"batch", opts.batch,
		"rounds", opts.rounds,
		"lr", opts.config.LearningRate,
		"momentum", opts.config.Momentum,
		"l2", opts.config.L2Decay)

	out := cmd.OutOrStdout()
	for round := 1; round <= opts.rounds; round++ {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		timer := report.StartTimer(opts.reportEvery * opts.batch)
		if err := m.train(set, opts.reportEvery); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		throughput := timer.Stop()

		score, err := m.score(set, opts.scoreCount)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		slog.Info("round complete",
			"round", round,
			"loss", m.net.LastLoss(),
			"score", score.String(),
			"throughput", throughput)

		if opts.show > 0 {
			score.Render(out, dataset.LabelName, opts.show)
		}
		fmt.Fprintf(out, "Round #%d score: %s\n", round, score)

		if opts.checkpoint != "" {
			if err := m.save(opts.checkpoint, done+progress.Iterations()); err != nil {
				return err
			}
		}
	}
	return nil
}
