package service

import (
	"sort"
	"strings"

	"github.com/sqcb_dashboard/backend/internal/models"
)

const SiteAll = "all"

// Sites maps a site name to the plant codes that belong to it.
var Sites = map[string][]string{
	"Thailand": {"3047", "3048", "3049"},
	"York":     {"1001"},
	"Tomahawk": {"1003"},
}

func SiteNames() []string {
	names := make([]string, 0, len(Sites))
	for name := range Sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter narrows the record set before classification. Plant runs first,
// then Search.
type Filter struct {
	Plant  string
	Search string
}

func (f Filter) Apply(records []models.Record) []models.Record {
	return FilterBySearch(FilterByPlant(records, f.Plant), f.Search)
}

// FilterByPlant keeps records whose plant code belongs to site. "all" and ""
// keep everything; an unknown site keeps nothing.
func FilterByPlant(records []models.Record, site string) []models.Record {
	if site == "" || site == SiteAll {
		return filterRecords(records, func(models.Record) bool { return true })
	}
	codes := Sites[site]
	return filterRecords(records, func(r models.Record) bool {
		for _, code := range codes {
			if r.PlantID == code {
				return true
			}
		}
		return false
	})
}

// FilterBySearch keeps records where any scalar field contains term,
// case-insensitively. A blank term keeps everything.
func FilterBySearch(records []models.Record, term string) []models.Record {
	if strings.TrimSpace(term) == "" {
		return filterRecords(records, func(models.Record) bool { return true })
	}
	needle := strings.ToLower(term)
	return filterRecords(records, func(r models.Record) bool {
		for _, v := range r.Fields() {
			if v != "" && strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	})
}

func filterRecords(records []models.Record, keep func(models.Record) bool) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
