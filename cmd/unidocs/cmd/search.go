package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unidocs/unidocs/internal/search"
	"github.com/unidocs/unidocs/internal/store"
)

func newSearchCmd() *cobra.Command {
	var (
		limit       int
		docType     string
		docsVersion string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed documentation from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, limit, docType, docsVersion)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVarP(&docType, "type", "t", "",
		"filter by type: manual, api-reference, package-docs")
	cmd.Flags().StringVar(&docsVersion, "docs-version", "",
		"Unity documentation version (default from config)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string, limit int, docType, flagVersion string) error {
	ctx := cmd.Context()

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	query := strings.Join(args, " ")
	if docType != "" && !store.DocType(docType).Valid() {
		return fmt.Errorf("unknown type %q (valid: manual, api-reference, package-docs)", docType)
	}

	ver := flagVersion
	if ver == "" {
		if v, err := env.store.GetMeta(ctx, store.MetaKeyCurrentVersion); err == nil && v != "" {
			ver = v
		} else {
			ver = env.cfg.Unity.DefaultVersion
		}
	}

	results, err := env.engine.Search(ctx, query, search.Options{
		Version: ver,
		Type:    store.DocType(docType),
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		env.out.Printf("No results for %q.\n", query)
		return nil
	}

	env.out.Headerf("%d results for %q", len(results), query)
	for i, r := range results {
		env.out.Printf("\n%d. %s (%s, score %.4f)\n", i+1, r.Title, r.Type, r.Score)
		env.out.Printf("   %s\n", r.FilePath)
		if r.Snippet != "" {
			env.out.Printf("   %s\n", r.Snippet)
		}
	}
	return nil
}
