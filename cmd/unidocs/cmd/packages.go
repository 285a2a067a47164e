package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/unidocs/unidocs/internal/fetch"
	"github.com/unidocs/unidocs/internal/store"
)

func newPackagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List and download Unity package documentation",
	}

	cmd.AddCommand(newPackagesListCmd())
	cmd.AddCommand(newPackagesDownloadCmd())

	return cmd
}

func newPackagesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexed packages and packages available for download",
		RunE:  runPackagesList,
	}
}

func runPackagesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	indexed, err := env.store.ListPackages(ctx)
	if err != nil {
		return err
	}

	env.out.Headerf("Indexed packages (%d)", len(indexed))
	for _, p := range indexed {
		env.out.Printf("  %s@%s (%d documents)\n", p.Name, p.Version, p.DocumentCount)
	}

	available, err := env.fetcher.DiscoverPackages(ctx, env.cfg.Unity.PackagesURL)
	if err != nil {
		env.out.Warnf("package discovery failed: %v", err)
		return nil
	}

	have := make(map[string]bool, len(indexed))
	for _, p := range indexed {
		have[p.Name] = true
	}

	env.out.Headerf("Available for download (%d)", len(available))
	for _, p := range available {
		if have[p.Name] {
			continue
		}
		env.out.Printf("  %s@%s\n", p.Name, p.Version)
	}
	return nil
}

func newPackagesDownloadCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "download [package-name...]",
		Short: "Download and index package documentation",
		Long: `Download the documentation of one or more Unity packages by name
(e.g. com.unity.burst) and index them. With --all, every discovered
package is downloaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackagesDownload(cmd, args, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "download every discovered package")

	return cmd
}

func runPackagesDownload(cmd *cobra.Command, args []string, all bool) error {
	ctx := cmd.Context()

	if !all && len(args) == 0 {
		return fmt.Errorf("name at least one package or pass --all")
	}

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	available, err := env.fetcher.DiscoverPackages(ctx, env.cfg.Unity.PackagesURL)
	if err != nil {
		return err
	}

	refs, err := selectPackages(available, args, all)
	if err != nil {
		return err
	}

	destRoot := filepath.Join(env.cfg.DocsDir(), "packages")

	env.out.Headerf("Downloading %d package(s)", len(refs))
	counts, err := env.fetcher.DownloadAll(ctx, refs, destRoot, env.cfg.Fetch.Concurrency)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		pages, ok := counts[ref.Name]
		if !ok {
			env.out.Warnf("%s: download failed, skipping index", ref.Name)
			continue
		}

		dest := filepath.Join(destRoot, ref.Name+"@"+ref.Version)
		result, err := env.indexer.Run(ctx, dest, store.Scope{
			PackageName:    ref.Name,
			PackageVersion: ref.Version,
		})
		if err != nil {
			env.out.Warnf("%s: indexing failed: %v", ref.Name, err)
			continue
		}
		env.out.Successf("%s@%s: %d pages mirrored, %d documents indexed",
			ref.Name, ref.Version, pages, result.Indexed)
	}
	return nil
}

// selectPackages resolves requested package names against the discovered
// set, failing on unknown names.
func selectPackages(available []*fetch.PackageRef, names []string, all bool) ([]*fetch.PackageRef, error) {
	if all {
		return available, nil
	}

	byName := make(map[string]*fetch.PackageRef, len(available))
	for _, p := range available {
		byName[p.Name] = p
	}

	refs := make([]*fetch.PackageRef, 0, len(names))
	for _, name := range names {
		ref, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown package %q (run 'unidocs packages list')", name)
		}
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}
