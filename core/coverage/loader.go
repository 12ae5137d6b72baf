package coverage

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/schema"
	"golang.org/x/sync/errgroup"
)

// Loader reads and decodes coverage files.
type Loader struct {
	Format     schema.CoverageFormat // schema.AutoFormat sniffs each file
	ModulePath string                // Stripped from Go coverprofile paths
	Workers    int
	Store      contract.CacheStore // Optional decode cache
}

// LoadAll decodes every path concurrently and returns the reports in input
// order. Any failure cancels the remaining work and is returned.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]schema.CoverageReport, error) {
	reports := make([]schema.CoverageReport, len(paths))
	if len(paths) == 0 {
		return reports, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(l.Workers, len(paths))))
	for i, p := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			report, err := l.Load(p)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Load reads and decodes a single coverage file, consulting the cache first.
func (l *Loader) Load(path string) (schema.CoverageReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.CoverageReport{}, fmt.Errorf("could not read coverage file %s: %w", path, err)
	}

	format := l.Format
	if format == "" || format == schema.AutoFormat {
		if format, err = DetectFormat(path, data); err != nil {
			return schema.CoverageReport{}, err
		}
	}

	key := generateCacheKey(format, l.ModulePath, data)
	if cached := checkCacheHit(l.Store, key); cached != nil {
		cached.Source = path
		return *cached, nil
	}

	decoder, err := DecoderFor(format, l.ModulePath)
	if err != nil {
		return schema.CoverageReport{}, err
	}
	report, err := decoder.Decode(bytes.NewReader(data))
	if err != nil {
		return schema.CoverageReport{}, fmt.Errorf("%s: %w", path, err)
	}
	report.Source = path

	storeReport(l.Store, key, report)
	return report, nil
}
