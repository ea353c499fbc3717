package api

import (
	"github.com/xraph/bastion"
)

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []bastion.CheckResult `json:"results" description:"Check results in order"`
}

// BulkResponse reports per-item outcomes of a bulk operation.
type BulkResponse struct {
	Succeeded []string              `json:"succeeded" description:"IDs processed successfully"`
	Failed    []bastion.BulkFailure `json:"failed" description:"IDs that failed, with reasons"`
}

// PurgeResponse reports how many audit entries a purge removed.
type PurgeResponse struct {
	Purged int64 `json:"purged" description:"Number of entries deleted"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
