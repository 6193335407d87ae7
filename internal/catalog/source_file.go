package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"os"

	dErrors "schemefinder/pkg/domain-errors"
)

//go:embed data/catalog.json
var embeddedCatalog []byte

// FileSource reads the catalog from a JSON file. An empty Path selects the
// dataset compiled into the binary.
type FileSource struct {
	Path string
}

// Load reads, schema-validates, and decodes the catalog document.
func (s FileSource) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "catalog load cancelled")
	}

	raw := embeddedCatalog
	if s.Path != "" {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read catalog file")
		}
		raw = data
	}
	return DecodeDocument(raw)
}

// DecodeDocument validates raw JSON against the catalog schema and decodes it.
// Unknown fields inside rule sets are rejected by the schema.
func DecodeDocument(raw []byte) (*Document, error) {
	if err := ValidateDocument(raw); err != nil {
		return nil, err
	}
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "decode catalog")
	}
	return &doc, nil
}

// Embedded returns the raw dataset compiled into the binary.
func Embedded() []byte {
	return bytes.Clone(embeddedCatalog)
}
