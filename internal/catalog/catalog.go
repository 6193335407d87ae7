// Package catalog holds the immutable set of welfare schemes and the rule
// model that describes who qualifies for each.
//
// A Catalog is built once at startup (Load or New) and is read-only afterwards,
// so it can be shared across goroutines without locking.
package catalog

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/crypto/blake2b"

	dErrors "schemefinder/pkg/domain-errors"
)

// Source produces the raw catalog document. Implementations read from a
// file, the embedded dataset, or Postgres.
type Source interface {
	Load(ctx context.Context) (*Document, error)
}

// Catalog is the validated, ordered list of schemes plus the passthrough
// location and translation tables served to the UI.
type Catalog struct {
	schemes      []Scheme
	index        map[int]int
	version      string
	locations    Locations
	translations Translations
}

// Option configures optional catalog data.
type Option func(*Catalog)

// WithLocations attaches the state and district list.
func WithLocations(l Locations) Option {
	return func(c *Catalog) {
		c.locations = Locations{States: slices.Clone(l.States)}
	}
}

// WithTranslations attaches the UI string tables.
func WithTranslations(t Translations) Option {
	return func(c *Catalog) {
		c.translations = maps.Clone(t)
	}
}

// New validates schemes and builds a catalog preserving their order.
// Allowed-value lists are trimmed and de-duplicated; invariant violations
// (duplicate IDs, inverted ranges, empty value sets) return CodeInvariantViolation.
func New(schemes []Scheme, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		schemes: make([]Scheme, 0, len(schemes)),
		index:   make(map[int]int, len(schemes)),
	}
	for _, s := range schemes {
		normalized, err := normalizeScheme(s)
		if err != nil {
			return nil, err
		}
		if _, dup := c.index[normalized.ID]; dup {
			return nil, dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("duplicate scheme id %d", normalized.ID))
		}
		c.index[normalized.ID] = len(c.schemes)
		c.schemes = append(c.schemes, normalized)
	}
	for _, opt := range opts {
		opt(c)
	}

	version, err := fingerprint(c.schemes)
	if err != nil {
		return nil, err
	}
	c.version = version
	return c, nil
}

// fingerprint hashes the normalized schemes so results cached against one
// catalog are never served from another.
func fingerprint(schemes []Scheme) (string, error) {
	raw, err := json.Marshal(schemes)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "encode catalog for fingerprint")
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:8]), nil
}

// Load reads the document from src and builds the catalog. Any error is a
// startup failure: callers must not serve eligibility checks without a catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "catalog source is required")
	}
	doc, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return New(doc.Schemes, WithLocations(doc.Locations), WithTranslations(doc.Translations))
}

// All returns every scheme in catalog order. The slice is a fresh copy;
// the schemes themselves must be treated as read-only.
func (c *Catalog) All() []Scheme {
	return slices.Clone(c.schemes)
}

// Len returns the number of schemes.
func (c *Catalog) Len() int {
	return len(c.schemes)
}

// ByID looks up a scheme by its identifier.
func (c *Catalog) ByID(id int) (Scheme, bool) {
	i, ok := c.index[id]
	if !ok {
		return Scheme{}, false
	}
	return c.schemes[i], true
}

// Version identifies the catalog contents. Two catalogs with the same
// schemes in the same order share a version.
func (c *Catalog) Version() string {
	return c.version
}

// Locations returns the states and districts known to the catalog.
func (c *Catalog) Locations() Locations {
	return c.locations
}

// Translations returns the UI string tables keyed by locale.
func (c *Catalog) Translations() Translations {
	return c.translations
}
