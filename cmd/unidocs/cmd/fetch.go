package cmd

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/unidocs/unidocs/internal/store"
)

func newFetchCmd() *cobra.Command {
	var docsVersion string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and extract the Unity documentation archive",
		Long: `Download the offline documentation zip for a Unity version and extract
it under the data directory. Run 'unidocs index' afterwards to build
the search index.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, docsVersion)
		},
	}

	cmd.Flags().StringVar(&docsVersion, "docs-version", "",
		"Unity documentation version (default from config)")

	return cmd
}

func runFetch(cmd *cobra.Command, flagVersion string) error {
	ctx := cmd.Context()

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	ver := env.resolveVersion(flagVersion)
	url := env.cfg.DocsURLFor(ver)
	dest := filepath.Join(env.cfg.DocsDir(), ver)

	env.out.Headerf("Fetching Unity %s documentation", ver)
	env.out.Labelf("Source", "%s", url)
	env.out.Labelf("Destination", "%s", dest)

	start := time.Now()
	files, err := env.fetcher.FetchDocs(ctx, url, dest)
	if err != nil {
		return err
	}

	if err := env.store.SetMeta(ctx, store.MetaKeySourceURL, url); err != nil {
		return err
	}
	if err := env.store.SetMeta(ctx, store.MetaKeyLastDownload,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	env.out.Successf("Extracted %d files in %s", files, durationRound(time.Since(start)))
	env.out.Printf("Next: unidocs index --docs-version %s\n", ver)
	return nil
}
