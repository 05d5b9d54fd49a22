package catalog

import (
	"context"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/repository/listing"
)

// Gateway fetches listings and submits batches to the backend.
type Gateway interface {
	ListGrants(ctx context.Context) ([]grant.Grant, error)
	ListTags(ctx context.Context) ([]string, error)
	SubmitBatch(ctx context.Context, inputs []grant.Input) ([]grant.Grant, error)
}

// Cache stores listings between fetches.
type Cache interface {
	Get(ctx context.Context, key listing.Key, dst any) (bool, error)
	Set(ctx context.Context, key listing.Key, value any) error
	InvalidateFor(ctx context.Context, m listing.Mutation) error
	Subscribe(fn func(listing.Key)) (cancel func())
}

// InputValidator checks inputs before they are submitted.
type InputValidator interface {
	ValidateInputs(inputs []grant.Input) ([]grant.Input, error)
}
