package types

import (
	"errors"
	"time"
)

// Config holds backend selection and the tunables of the charts core.
type Config struct {
	Backend        string        `json:"backend" yaml:"backend"`
	DataDir        string        `json:"data_dir" yaml:"data_dir"`
	SearchDebounce time.Duration `json:"search_debounce" yaml:"search_debounce"`
	SearchLimit    int           `json:"search_limit" yaml:"search_limit"`
	HitsPerPage    int           `json:"hits_per_page" yaml:"hits_per_page"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied by GetSearchDebounce, GetSearchLimit and GetHitsPerPage.
const (
	DefaultSearchDebounce = time.Second
	DefaultSearchLimit    = 100
	DefaultHitsPerPage    = 20
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrDebounceInvalid    = errors.New("search debounce must not be negative")
	ErrSearchLimitInvalid = errors.New("search limit must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.SearchDebounce < 0 {
		return ErrDebounceInvalid
	}
	if c.SearchLimit < 0 || c.HitsPerPage < 0 {
		return ErrSearchLimitInvalid
	}
	return nil
}

// GetSearchDebounce returns the catalog search quiescence window.
func (c Config) GetSearchDebounce() time.Duration {
	if c.SearchDebounce == 0 {
		return DefaultSearchDebounce
	}
	return c.SearchDebounce
}

// GetSearchLimit returns the maximum number of catalog matches per draft search.
func (c Config) GetSearchLimit() int {
	if c.SearchLimit == 0 {
		return DefaultSearchLimit
	}
	return c.SearchLimit
}

// GetHitsPerPage returns the marketplace page size.
func (c Config) GetHitsPerPage() int {
	if c.HitsPerPage == 0 {
		return DefaultHitsPerPage
	}
	return c.HitsPerPage
}
