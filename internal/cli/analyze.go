package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/codefactory/internal/analyzer"
	"github.com/dshills/codefactory/internal/artifact"
	"github.com/dshills/codefactory/internal/storage"
)

func newAnalyzeCmd(opts *options) (*cobra.Command, error) {
	var noArtifacts bool

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Write the skeleton, chunks and summary artifacts for a repository",
		Long: `Walk a repository, build its size-budgeted skeleton and chunk every
eligible file. Artifacts are written to --output-dir; with --store the
chunks are also saved to the SQLite chunk store for search.`,
		Args: cobra.MaximumNArgs(1),
	}
	v, err := bindCommand(cmd)
	if err != nil {
		return nil, err
	}
	cmd.Flags().BoolVar(&noArtifacts, "no-artifacts", false, "Skip writing artifact files")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := opts.load(v)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		if len(args) == 1 {
			cfg = cfg.WithRoot(args[0])
		}

		a, err := analyzer.New(cfg, logger)
		if err != nil {
			return err
		}
		res, err := a.Run(cmd.Context())
		if err != nil {
			return err
		}

		report := runReport{result: res}
		if !noArtifacts {
			if err := artifact.Write(cfg.OutputDir, res.ArtifactSet()); err != nil {
				return err
			}
			report.outputDir = cfg.OutputDir
			logger.Info("artifacts written", zap.String("dir", cfg.OutputDir))
		}

		if cfg.Storage.Enabled {
			store, err := storage.NewSQLiteStorage(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := a.Persist(cmd.Context(), store, res)
			if err != nil {
				return err
			}
			report.persist = stats
			report.dbPath = cfg.Storage.DBPath
		}

		return report.render(cmd.OutOrStdout())
	}
	return cmd, nil
}
