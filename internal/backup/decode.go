package backup

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
)

// maxDocumentSize bounds how much of an import is read.
const maxDocumentSize = 64 << 20

// Decode parses and validates a backup. It rejects malformed JSON, a missing
// or unknown version, and a document with no records. Timestamps in any of
// the historic representations are normalized, and version 1 documents are
// upgraded in memory.
func Decode(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	version, ok := top["version"].(float64)
	if !ok || (version != VersionLegacy && version != CurrentVersion) {
		return nil, fmt.Errorf("%w: version %v", ErrUnsupportedVersion, top["version"])
	}

	normalize.TimestampFields(top)
	normalized, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if doc.Version == VersionLegacy {
		upgradeV1(&doc)
	}
	if doc.Total() == 0 {
		return nil, ErrEmptyBackup
	}
	return &doc, nil
}

func upgradeV1(doc *Document) {
	doc.Series = []Series{}
	doc.Bin = []Book{}
	doc.Version = CurrentVersion
}
