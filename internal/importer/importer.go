// Package importer seeds the dish catalog from a nested
// region -> country -> [dish names] file. It runs offline, before the API
// serves traffic, so no cache is invalidated.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/repo"
)

// Imported rows are attributed to this pseudo user.
const (
	SystemAuthorID   = "system"
	SystemAuthorName = "SelectLanch"
)

// Catalog maps region to country to dish names.
type Catalog map[string]map[string][]string

// Format selects the catalog encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension; anything but .yaml/.yml
// is JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a catalog in the given format.
func Decode(r io.Reader, f Format) (Catalog, error) {
	var cat Catalog
	var err error
	switch f {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&cat)
	default:
		err = json.NewDecoder(r).Decode(&cat)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s catalog: %w", f, err)
	}
	return cat, nil
}

// Load opens path and decodes it according to its extension.
func Load(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, FormatOf(path))
}

// Summary reports the outcome of a run.
type Summary struct {
	Total    int // names seen
	Imported int // rows inserted
	Skipped  int // already present or blank
	Failed   int // insert errors
}

// Importer writes a Catalog into the dishes table.
type Importer struct {
	DB     *gorm.DB
	Logger zerolog.Logger
	// ProgressEvery logs a progress line every N inserts (default 50).
	ProgressEvery int
}

// Run inserts every dish of cat in region, country, name order. Duplicates
// are skipped and per-dish failures are counted, not returned. The only
// error is a cancelled ctx.
func (im *Importer) Run(ctx context.Context, cat Catalog) (Summary, error) {
	every := im.ProgressEvery
	if every <= 0 {
		every = 50
	}
	lg := im.Logger
	var sum Summary

	for _, regionName := range sortedKeys(cat) {
		region := normalizeRegion(regionName)
		if string(region) != regionName {
			lg.Warn().Str("region", regionName).Str("as", string(region)).Msg("region normalized")
		}
		countries := cat[regionName]
		lg.Info().Str("region", string(region)).Int("countries", len(countries)).Msg("processing region")

		for _, country := range sortedKeys(countries) {
			dishes := countries[country]
			lg.Info().Str("country", country).Int("dishes", len(dishes)).Msg("processing country")

			for _, raw := range dishes {
				if err := ctx.Err(); err != nil {
					return sum, err
				}
				sum.Total++
				name := strings.TrimSpace(raw)
				if name == "" || strings.TrimSpace(country) == "" {
					sum.Skipped++
					continue
				}
				row := domain.Dish{
					Name:       name,
					Country:    strings.TrimSpace(country),
					Region:     region,
					Category:   Classify(name),
					AuthorID:   SystemAuthorID,
					AuthorName: SystemAuthorName,
				}
				n, err := repo.ImportDishes(ctx, im.DB, []domain.Dish{row})
				switch {
				case err != nil:
					sum.Failed++
					lg.Error().Err(err).Str("dish", name).Str("country", country).Msg("import dish")
				case n == 0:
					sum.Skipped++
				default:
					sum.Imported++
					if sum.Imported%every == 0 {
						lg.Info().Int("imported", sum.Imported).Int("seen", sum.Total).Msg("progress")
					}
				}
			}
		}
	}

	lg.Info().
		Int("total", sum.Total).
		Int("imported", sum.Imported).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("import complete")
	return sum, nil
}

// normalizeRegion matches name case-insensitively against the known regions;
// unknown names fall into Others.
func normalizeRegion(name string) domain.Region {
	n := strings.TrimSpace(name)
	for _, r := range domain.Regions {
		if strings.EqualFold(n, string(r)) {
			return r
		}
	}
	return "Others"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
