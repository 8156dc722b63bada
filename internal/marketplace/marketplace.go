// Package marketplace browses the public catalog: faceted, paginated
// queries over active listings, the sellers map used to label the seller
// facet, and the page navigation window.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// OmittedTypes are listing types never shown in the marketplace.
var OmittedTypes = []string{"charity"}

// maxLookups bounds concurrent directory lookups when building a sellers map.
const maxLookups = 8

// Query is a marketplace search as entered by the user.
type Query struct {
	Text    string
	Page    int
	Types   []string
	Sellers []string
}

// FacetValue is one selectable value of a facet.
type FacetValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Facet is a filter group built from facet counts.
type Facet struct {
	Name   string       `json:"name"`
	Values []FacetValue `json:"values"`
}

// Page is one browsed result page.
type Page struct {
	Hits       []types.CatalogEntry `json:"hits"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"total_pages"`
	TotalItems int                  `json:"total_items"`
	Sellers    map[string]string    `json:"sellers"`
	Facets     []Facet              `json:"facets"`
}

// Browser runs marketplace queries.
type Browser struct {
	searcher    types.CatalogSearcher
	directory   types.Directory
	hitsPerPage int
	logger      *zap.Logger
}

// NewBrowser creates a Browser. directory may be nil, in which case sellers
// are labelled by id.
func NewBrowser(searcher types.CatalogSearcher, directory types.Directory, hitsPerPage int, logger *zap.Logger) *Browser {
	if hitsPerPage <= 0 {
		hitsPerPage = types.DefaultHitsPerPage
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{
		searcher:    searcher,
		directory:   directory,
		hitsPerPage: hitsPerPage,
		logger:      logger,
	}
}

// CatalogQuery converts q into the catalog query the marketplace issues:
// active, not promoted, charity listings omitted.
func (b *Browser) CatalogQuery(q Query) types.CatalogQuery {
	promoted := false
	return types.CatalogQuery{
		Text:       q.Text,
		ActiveOnly: true,
		Limit:      b.hitsPerPage,
		Page:       q.Page,
		OmitTypes:  OmittedTypes,
		Promoted:   &promoted,
		Types:      q.Types,
		Sellers:    q.Sellers,
	}
}

// Browse runs q and labels the seller facet with display names.
func (b *Browser) Browse(ctx context.Context, q Query) (Page, error) {
	res, err := b.searcher.SearchCatalog(ctx, b.CatalogQuery(q))
	if err != nil {
		return Page{}, fmt.Errorf("searching catalog: %w", err)
	}

	uids := make([]string, 0, len(res.Facets[types.FacetSeller]))
	for uid := range res.Facets[types.FacetSeller] {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	sellers, err := SellersMap(ctx, b.directory, uids)
	if err != nil {
		// Unlabelled sellers still browse.
		b.logger.Warn("building sellers map", zap.Error(err))
		sellers = map[string]string{}
	}

	return Page{
		Hits:       res.Hits,
		Page:       res.Page,
		TotalPages: res.TotalPages,
		TotalItems: res.TotalItems,
		Sellers:    sellers,
		Facets:     Facets(res, sellers),
	}, nil
}

// SellersMap looks up the display name of every uid concurrently. Unknown
// owners are left out; any other lookup error fails the whole map.
func SellersMap(ctx context.Context, dir types.Directory, uids []string) (map[string]string, error) {
	out := make(map[string]string, len(uids))
	if dir == nil || len(uids) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxLookups)
	for _, uid := range uids {
		eg.Go(func() error {
			name, err := dir.GetOwnerDisplayName(egCtx, uid)
			if errors.Is(err, types.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("looking up seller %s: %w", uid, err)
			}
			mu.Lock()
			out[uid] = name
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Facets turns facet counts into filter groups, type first, values ordered
// by descending count then value. Seller values are labelled from sellers,
// falling back to the uid.
func Facets(res types.CatalogResult, sellers map[string]string) []Facet {
	var out []Facet
	for _, name := range []string{types.FacetType, types.FacetSeller} {
		counts := res.Facets[name]
		if len(counts) == 0 {
			continue
		}
		f := Facet{Name: name}
		for value, n := range counts {
			label := value
			if name == types.FacetSeller {
				if s, ok := sellers[value]; ok && s != "" {
					label = s
				}
			}
			f.Values = append(f.Values, FacetValue{Value: value, Label: label, Count: n})
		}
		sort.Slice(f.Values, func(i, j int) bool {
			if f.Values[i].Count != f.Values[j].Count {
				return f.Values[i].Count > f.Values[j].Count
			}
			return f.Values[i].Value < f.Values[j].Value
		})
		out = append(out, f)
	}
	return out
}
