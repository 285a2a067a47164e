package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/sync/errgroup"

	uerrors "github.com/unidocs/unidocs/internal/errors"
)

// PackageRef identifies a published package documentation set.
type PackageRef struct {
	// Name is the package identifier, e.g. "com.unity.burst".
	Name string

	// Version is the documented release, e.g. "1.8".
	Version string

	// DocsURL is the root of the package's documentation pages.
	DocsURL string
}

// packageLinkRe matches documentation links of the form
// /Packages/com.unity.burst@1.8/manual/index.html.
var packageLinkRe = regexp.MustCompile(`/Packages/((?:[a-z0-9]+\.)+[a-z0-9-]+)@([0-9][\w.-]*)/`)

// DiscoverPackages scrapes the package list page and returns the packages
// with published documentation, deduplicated by name (latest link wins)
// and sorted by name.
func (f *Fetcher) DiscoverPackages(ctx context.Context, listURL string) ([]*PackageRef, error) {
	base, err := url.Parse(listURL)
	if err != nil {
		return nil, uerrors.ValidationError(
			fmt.Sprintf("invalid package list URL: %s", listURL), err)
	}

	found := make(map[string]*PackageRef)

	c := colly.NewCollector(colly.MaxDepth(1))
	c.SetRequestTimeout(f.client.Timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Request.AbsoluteURL(e.Attr("href"))
		m := packageLinkRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		name, version := m[1], m[2]
		found[name] = &PackageRef{
			Name:    name,
			Version: version,
			DocsURL: fmt.Sprintf("%s://%s/Packages/%s@%s/",
				base.Scheme, base.Host, name, version),
		}
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
	})

	if err := c.Visit(listURL); err != nil {
		return nil, uerrors.NetworkError("failed to load package list", err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(found) == 0 {
		if visitErr != nil {
			return nil, uerrors.NetworkError("failed to load package list", visitErr)
		}
		return nil, nil
	}

	refs := make([]*PackageRef, 0, len(found))
	for _, ref := range found {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })

	f.logger.Info("packages discovered",
		slog.String("url", listURL),
		slog.Int("count", len(refs)))
	return refs, nil
}

// DownloadPackageDocs crawls a package's documentation pages and mirrors
// them under destDir, preserving relative paths. Returns the number of
// pages written.
func (f *Fetcher) DownloadPackageDocs(ctx context.Context, ref *PackageRef, destDir string) (int, error) {
	root, err := url.Parse(ref.DocsURL)
	if err != nil {
		return 0, uerrors.ValidationError(
			fmt.Sprintf("invalid package docs URL: %s", ref.DocsURL), err)
	}
	prefix := root.Path

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, uerrors.New(uerrors.ErrCodeFilePermission,
			"failed to create package docs directory", err)
	}

	saved := 0

	c := colly.NewCollector(
		colly.AllowedDomains(root.Hostname()),
		colly.MaxDepth(4),
	)
	c.SetRequestTimeout(f.client.Timeout)
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       100 * time.Millisecond,
		Parallelism: 2,
	})

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		pagePath := r.Request.URL.Path
		if !strings.HasPrefix(pagePath, prefix) ||
			!strings.HasSuffix(pagePath, ".html") {
			return
		}
		rel := strings.TrimPrefix(pagePath, prefix)
		target := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			f.logger.Warn("failed to create directory",
				slog.String("path", target),
				slog.String("error", err.Error()))
			return
		}
		if err := os.WriteFile(target, r.Body, 0o644); err != nil {
			f.logger.Warn("failed to write page",
				slog.String("path", target),
				slog.String("error", err.Error()))
			return
		}
		saved++
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Request.AbsoluteURL(e.Attr("href"))
		link, err := url.Parse(href)
		if err != nil {
			return
		}
		if link.Host == root.Host && strings.HasPrefix(link.Path, prefix) &&
			strings.HasSuffix(link.Path, ".html") {
			_ = e.Request.Visit(href)
		}
	})

	entry := ref.DocsURL
	if !strings.HasSuffix(entry, ".html") {
		entry = ref.DocsURL + path.Join("manual", "index.html")
	}
	if err := c.Visit(entry); err != nil {
		return 0, uerrors.NetworkError(
			fmt.Sprintf("failed to fetch package docs for %s", ref.Name), err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return saved, err
	}
	if saved == 0 {
		return 0, uerrors.New(uerrors.ErrCodePackageNotFound,
			fmt.Sprintf("no documentation pages found for %s@%s", ref.Name, ref.Version), nil).
			WithSuggestion("check the package name against list_unity_packages")
	}

	f.logger.Info("package docs downloaded",
		slog.String("package", ref.Name),
		slog.String("version", ref.Version),
		slog.Int("pages", saved))
	return saved, nil
}

// DownloadAll fetches several packages' docs concurrently, bounded by
// concurrency. Each package lands in destRoot/<name>@<version>. The first
// failure cancels the remaining downloads.
func (f *Fetcher) DownloadAll(ctx context.Context, refs []*PackageRef, destRoot string, concurrency int) (map[string]int, error) {
	if concurrency <= 0 {
		concurrency = 2
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	counts := make(map[string]int, len(refs))
	results := make(chan struct {
		name  string
		pages int
	}, len(refs))

	for _, ref := range refs {
		g.Go(func() error {
			dest := filepath.Join(destRoot, ref.Name+"@"+ref.Version)
			pages, err := f.DownloadPackageDocs(gctx, ref, dest)
			if err != nil {
				return err
			}
			results <- struct {
				name  string
				pages int
			}{ref.Name, pages}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	for r := range results {
		counts[r.name] = r.pages
	}
	return counts, err
}
