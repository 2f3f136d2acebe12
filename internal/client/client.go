// Package client provides an HTTP/JSON client for the dynrec REST API, used
// by the drc CLI.
package client

import (
	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/query"
	"github.com/groblegark/dynrec/internal/schema"
)

// RollbackRequest names the schema version to roll back to.
type RollbackRequest struct {
	Version int `json:"version"`
}

// VersionsResponse is the response from ListVersions.
type VersionsResponse struct {
	Versions []*model.SchemaVersion `json:"versions"`
}

// ExportResponse is the response from Export.
type ExportResponse struct {
	Entity    string `json:"entity"`
	Records   int    `json:"records"`
	Key       string `json:"key"`
	Timestamp string `json:"timestamp"`
}

// QueryRequest is re-exported so CLI commands build filter requests with the
// same wire shape the server compiles.
type QueryRequest = query.Request

// QueryResult is the server's page envelope.
type QueryResult = query.Result

// IndexPlan mirrors the server's derived index set.
type IndexPlan = schema.IndexPlan
