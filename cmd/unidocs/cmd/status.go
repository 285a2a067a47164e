package cmd

import (
	"github.com/spf13/cobra"

	"github.com/unidocs/unidocs/internal/store"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the local documentation corpus",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	ver, err := env.store.GetMeta(ctx, store.MetaKeyCurrentVersion)
	if err != nil {
		return err
	}
	if ver == "" {
		env.out.Warnf("No documentation indexed yet. Run 'unidocs fetch' then 'unidocs index'.")
		return nil
	}

	stats, err := env.store.Stats(ctx, ver)
	if err != nil {
		return err
	}
	meta, err := env.store.AllMeta(ctx)
	if err != nil {
		return err
	}

	env.out.Headerf("Unity documentation corpus")
	env.out.Labelf("Version", "%s", ver)
	env.out.Labelf("Documents", "%d", stats.TotalCount)
	for _, t := range []store.DocType{store.DocTypeManual, store.DocTypeAPI, store.DocTypePackageDocs} {
		if n := stats.CountsByType[t]; n > 0 {
			env.out.Labelf("  "+string(t), "%d", n)
		}
	}
	env.out.Labelf("Database", "%.1f MB", float64(stats.SizeBytes)/(1024*1024))
	env.out.Labelf("Backend", "%s", env.cfg.Search.Backend)
	if !stats.LastUpdatedAt.IsZero() {
		env.out.Labelf("Last updated", "%s", stats.LastUpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if v := meta[store.MetaKeyLastDownload]; v != "" {
		env.out.Labelf("Last download", "%s", v)
	}
	if v := meta[store.MetaKeySourceURL]; v != "" {
		env.out.Labelf("Source", "%s", v)
	}

	packages, err := env.store.ListPackages(ctx)
	if err != nil {
		return err
	}
	if len(packages) > 0 {
		env.out.Labelf("Packages", "%d", len(packages))
		for _, p := range packages {
			env.out.Printf("  %s@%s (%d documents)\n", p.Name, p.Version, p.DocumentCount)
		}
	}
	return nil
}
