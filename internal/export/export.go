// Package export dumps an entity's active documents as JSONL, locally or to
// an S3-compatible bucket.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/groblegark/dynrec/internal/store"
)

// header is the first JSONL line of an export.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Entity      string    `json:"entity"`
	Timestamp   time.Time `json:"timestamp"`
	RecordCount int       `json:"record_count"`
}

// line wraps a single JSONL record with a type discriminator.
type line struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every active document of an entity to w, one JSON line
// per record after a header line. Documents are sorted by id so repeated
// exports of the same data are byte-identical apart from the timestamp.
func ExportJSONL(ctx context.Context, s store.DocumentStore, entity string, w io.Writer) (int, error) {
	docs, err := s.ListActiveDocuments(ctx, entity)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	enc := json.NewEncoder(w)
	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Entity:      entity,
		Timestamp:   time.Now().UTC(),
		RecordCount: len(docs),
	}); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, doc := range docs {
		if err := enc.Encode(line{Type: "record", Data: doc}); err != nil {
			return 0, fmt.Errorf("write record %s: %w", doc.ID, err)
		}
	}
	return len(docs), nil
}
