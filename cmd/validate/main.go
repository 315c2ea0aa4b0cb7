// Command validate loads a fixture tree, builds a catalog from it, and checks
// that every dataset's timeline and resolution policy behave as expected.
// With -at it also prints the items each product resolves for that time.
//
// Usage:
//
//	go run ./cmd/validate -dir data/fixtures -manifest data/fixtures/manifest.yaml
//	go run ./cmd/validate -dir data/fixtures -manifest data/fixtures/manifest.yaml -at 2024-06-29T12:00:00Z
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/cyclone-catalog/internal/config"
	"github.com/couchcryptid/cyclone-catalog/internal/domain"
	"github.com/couchcryptid/cyclone-catalog/internal/source"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "data/fixtures", "fixture directory (collections/ and items/)")
	manifestPath := flag.String("manifest", "", "manifest YAML (default: <dir>/manifest.yaml)")
	at := flag.String("at", "", "optional query time; prints resolved items per product")
	flag.Parse()

	if *manifestPath == "" {
		*manifestPath = strings.TrimRight(*dir, "/") + "/manifest.yaml"
	}

	os.Exit(run(os.Stdout, *dir, *manifestPath, *at))
}

func run(w io.Writer, dir, manifestPath, at string) int {
	fmt.Fprintln(w, "=== Cyclone Catalog Validation ===")
	fmt.Fprintln(w)

	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loader := source.NewLoader(source.NewBlobReader(source.NewDirStore(dir)), manifest, 4, logger)
	batch, err := loader.Fetch(context.Background())
	if err != nil {
		fmt.Fprintf(w, "FATAL: load fixtures: %v\n", err)
		return 1
	}

	cat, err := domain.BuildCatalog(batch)
	if err != nil {
		fmt.Fprintf(w, "FATAL: build catalog: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateCoverage(cat, manifest),
		validateTimelines(cat),
		validatePolicies(cat),
	}

	// ── Report ──
	printSummary(w, cat)

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if at != "" {
		t, err := domain.ParseTimestamp(at)
		if err != nil {
			fmt.Fprintf(w, "\nFATAL: -at: %v\n", err)
			return 1
		}
		printResolved(w, cat, t)
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func printSummary(w io.Writer, cat *domain.Catalog) {
	stats := cat.Stats()
	fmt.Fprintf(w, "Snapshot %s: %d storms, %d products, %d items\n", cat.ID, stats.Storms, stats.Products, stats.Items)
	for _, storm := range cat.StormNames() {
		cy, _ := cat.Cyclone(storm)
		fmt.Fprintf(w, "\n%s\n", cy.ID)
		for _, name := range cy.ProductNames() {
			ds := cy.Products[name].Dataset
			span := "static"
			if ds.TimeSensitive && ds.Len() > 0 {
				span = ds.StartDate().Format(time.RFC3339) + " .. " + ds.EndDate().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "  %-28s %-20s %6d items  %s\n", name, ds.Kind, ds.Len(), span)
		}
	}
}

func printResolved(w io.Writer, cat *domain.Catalog, t time.Time) {
	fmt.Fprintf(w, "\nResolved at %s:\n", t.Format(time.RFC3339))
	for _, storm := range cat.StormNames() {
		cy, _ := cat.Cyclone(storm)
		for _, name := range cy.ProductNames() {
			items := cy.Products[name].Dataset.Assets(t)
			ids := make([]string, len(items))
			for i, it := range items {
				ids[i] = it.ID
			}
			fmt.Fprintf(w, "  %s/%s (%d): %s\n", storm, name, len(ids), strings.Join(ids, ", "))
		}
	}
}

// ── Phases ──

// validateCoverage checks every manifest collection produced a product.
func validateCoverage(cat *domain.Catalog, m *config.Manifest) *phase {
	p := &phase{name: "Manifest coverage"}
	seen := make(map[string]bool)
	for _, storm := range cat.StormNames() {
		cy, _ := cat.Cyclone(storm)
		for _, prod := range cy.Products {
			for _, it := range prod.Dataset.Items() {
				seen[it.Collection] = true
			}
		}
	}
	for _, id := range append(append([]string{}, m.Raster...), m.Vector...) {
		if !seen[id] {
			p.errorf("collection %s produced no items", id)
		}
	}
	return p
}

// validateTimelines checks sort order and that every key resolves to itself.
func validateTimelines(cat *domain.Catalog) *phase {
	p := &phase{name: "Timeline ordering and nearest lookup"}
	forEachProduct(cat, func(storm, name string, ds *domain.Dataset) {
		keys := ds.Datetimes()
		for i := 1; i < len(keys); i++ {
			if keys[i].Before(keys[i-1]) {
				p.errorf("%s/%s: key %d (%s) before key %d", storm, name, i, keys[i].Format(time.RFC3339), i-1)
			}
		}
		for i, k := range keys {
			got := domain.NearestIndex(keys, k)
			if got < 0 || !keys[got].Equal(k) {
				p.errorf("%s/%s: nearest(%s) = %d, want key %d", storm, name, k.Format(time.RFC3339), got, i)
			}
		}
	})
	return p
}

// validatePolicies checks the unfiltered result of each resolution policy.
func validatePolicies(cat *domain.Catalog) *phase {
	p := &phase{name: "Resolution policies"}
	forEachProduct(cat, func(storm, name string, ds *domain.Dataset) {
		got := len(ds.Assets(time.Time{}))
		want := ds.Len()
		if ds.Kind == domain.KindRaster && ds.Len() > 0 {
			want = 1
		}
		if got != want {
			p.errorf("%s/%s (%s): %d items without a query time, want %d", storm, name, ds.Kind, got, want)
		}
		if ds.Kind == domain.KindVectorWindVector && ds.Len() > 0 {
			before := ds.StartDate().Add(-time.Hour)
			if n := len(ds.Assets(before)); n != 0 {
				p.errorf("%s/%s: %d wind vectors before the first observation", storm, name, n)
			}
		}
	})
	return p
}

func forEachProduct(cat *domain.Catalog, fn func(storm, name string, ds *domain.Dataset)) {
	for _, storm := range cat.StormNames() {
		cy, _ := cat.Cyclone(storm)
		for _, name := range cy.ProductNames() {
			fn(storm, name, cy.Products[name].Dataset)
		}
	}
}
