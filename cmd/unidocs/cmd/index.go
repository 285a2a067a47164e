package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unidocs/unidocs/internal/indexer"
	"github.com/unidocs/unidocs/internal/store"
)

func newIndexCmd() *cobra.Command {
	var (
		docsVersion string
		docsPath    string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the search index from an extracted documentation tree",
		Long: `Parse every HTML page under the documentation tree and (re)build the
full-text index for that version. Re-running is safe: the version's
documents are replaced in one transaction.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd, docsVersion, docsPath)
		},
	}

	cmd.Flags().StringVar(&docsVersion, "docs-version", "",
		"Unity documentation version (default from config)")
	cmd.Flags().StringVar(&docsPath, "path", "",
		"documentation tree to index (default <data-dir>/docs/<version>)")

	return cmd
}

func runIndex(cmd *cobra.Command, flagVersion, docsPath string) error {
	ctx := cmd.Context()

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	ver := env.resolveVersion(flagVersion)
	root := docsPath
	if root == "" {
		root = filepath.Join(env.cfg.DocsDir(), ver)
	}
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("documentation tree not found at %s (run 'unidocs fetch' first): %w", root, err)
	}

	env.out.Headerf("Indexing Unity %s documentation", ver)
	env.out.Labelf("Source", "%s", root)
	env.out.Labelf("Backend", "%s", env.cfg.Search.Backend)

	env.indexer.OnProgress(func(p indexer.Progress) {
		env.out.Progressf(p.Parsed, p.Total, "pages parsed")
	})

	result, err := env.indexer.Run(ctx, root, store.Scope{Version: ver})
	if err != nil {
		return err
	}

	env.out.Successf("Indexed %d documents in %s", result.Indexed, durationRound(result.Duration))
	if result.Failed > 0 {
		env.out.Warnf("%d pages failed to parse (see log for details)", result.Failed)
	}
	return nil
}
