package discovery

import (
	"context"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/query"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/result"
	"github.com/felixrdev/grant-tagging-system/internal/repository/listing"
)

// Searcher runs advanced searches against the backend.
type Searcher interface {
	AdvancedSearch(ctx context.Context, q query.Query) (result.Result, error)
}

// Catalog provides cached listings and invalidation notices.
type Catalog interface {
	Grants(ctx context.Context) ([]grant.Grant, error)
	Tags(ctx context.Context) ([]string, error)
	Subscribe(fn func(listing.Key)) (cancel func())
}
