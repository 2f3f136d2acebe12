package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/groblegark/dynrec/internal/store"
)

// Destination is a sink for an exported JSONL payload.
type Destination interface {
	Write(ctx context.Context, key string, data []byte) error
}

// Result describes one completed export.
type Result struct {
	Entity    string    `json:"entity"`
	Records   int       `json:"records"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

// Exporter dumps entities from a document store to a destination.
type Exporter struct {
	store     store.DocumentStore
	dest      Destination
	keyPrefix string
	logger    *slog.Logger
}

// NewExporter wires an exporter. keyPrefix is prepended to the per-entity
// object key.
func NewExporter(s store.DocumentStore, dest Destination, keyPrefix string) *Exporter {
	return &Exporter{store: s, dest: dest, keyPrefix: keyPrefix, logger: slog.Default()}
}

// Export dumps one entity's active documents to the destination as
// <keyPrefix>/<entity>.jsonl.
func (e *Exporter) Export(ctx context.Context, entity string) (*Result, error) {
	var buf bytes.Buffer
	count, err := ExportJSONL(ctx, e.store, entity, &buf)
	if err != nil {
		return nil, err
	}

	key := path.Join(e.keyPrefix, entity+".jsonl")
	if err := e.dest.Write(ctx, key, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}

	e.logger.Info("export complete", "entity", entity, "records", count, "key", key)
	return &Result{Entity: entity, Records: count, Key: key, Timestamp: time.Now().UTC()}, nil
}
