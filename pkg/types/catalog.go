package types

import "context"

// CatalogEntry is a marketplace listing as returned by the search index.
type CatalogEntry struct {
	ObjectID string  `json:"objectID"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Type     string  `json:"type"`
	UID      string  `json:"uid"`
	Active   bool    `json:"active"`
	Promoted bool    `json:"promoted,omitempty"`
}

// CatalogQuery describes one search against the catalog index. Page is
// zero based. A zero Limit means no limit.
type CatalogQuery struct {
	Text       string
	ActiveOnly bool
	Limit      int
	Page       int
	OmitTypes  []string
	Promoted   *bool
	Types      []string
	Sellers    []string
}

// Facet names used as keys of CatalogResult.Facets.
const (
	FacetType   = "type"
	FacetSeller = "uid"
)

// CatalogResult is one page of catalog hits plus facet counts keyed by
// facet name then value.
type CatalogResult struct {
	Hits       []CatalogEntry
	Page       int
	TotalPages int
	TotalItems int
	Facets     map[string]map[string]int
}

// CatalogSearcher is the catalog search collaborator.
type CatalogSearcher interface {
	SearchCatalog(ctx context.Context, q CatalogQuery) (CatalogResult, error)
}

// Owner is a directory record for a seller.
type Owner struct {
	ID    string `json:"uid"`
	Name  string `json:"userName"`
	Email string `json:"email"`
}

// Directory is the user-directory lookup collaborator. Both methods return
// ErrNotFound when the owner is unknown.
type Directory interface {
	GetOwnerDisplayName(ctx context.Context, ownerID string) (string, error)
	GetOwnerContact(ctx context.Context, ownerID string) (string, error)
}

// CatalogWriter adds listings and directory records. The CLI uses it to
// populate a local catalog.
type CatalogWriter interface {
	PutCatalogEntry(ctx context.Context, e CatalogEntry) error
	PutOwner(ctx context.Context, o Owner) error
}
