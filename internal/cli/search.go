package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/codefactory/internal/searcher"
	"github.com/dshills/codefactory/internal/storage"
	"github.com/dshills/codefactory/pkg/types"
)

func newSearchCmd(opts *options) (*cobra.Command, error) {
	var (
		limit        int
		language     string
		pathGlob     string
		minRelevance float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over the stored chunks of an analyzed repository",
		Long: `Search the chunk store for chunks of --root matching every query term.
The repository must have been analyzed with --store first.`,
		Args: cobra.MinimumNArgs(1),
	}
	v, err := bindCommand(cmd)
	if err != nil {
		return nil, err
	}
	cmd.Flags().IntVar(&limit, "limit", searcher.DefaultLimit, "Maximum number of results (1-100)")
	cmd.Flags().StringVar(&language, "language", "", "Only return chunks of this language hint")
	cmd.Flags().StringVar(&pathGlob, "path-glob", "", "Only return chunks whose path matches this glob")
	cmd.Flags().Float64Var(&minRelevance, "min-relevance", 0, "Minimum normalized relevance score (0-1)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := opts.load(v)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		root, err := cfg.AbsRoot()
		if err != nil {
			return err
		}

		store, err := storage.NewSQLiteStorage(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		project, err := store.GetProject(cmd.Context(), root)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("repository %s has not been analyzed; run analyze --store first", root)
		}
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		resp, err := searcher.NewSearcher(store).Search(cmd.Context(), searcher.Request{
			Query:        query,
			Limit:        limit,
			ProjectID:    project.ID,
			Language:     types.LanguageHint(language),
			PathGlob:     pathGlob,
			MinRelevance: minRelevance,
		})
		if err != nil {
			return err
		}

		return renderResults(cmd.OutOrStdout(), query, resp)
	}
	return cmd, nil
}
