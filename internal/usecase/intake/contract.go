package intake

import (
	"context"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
)

// Submitter sends validated inputs for tagging.
type Submitter interface {
	Submit(ctx context.Context, inputs []grant.Input) ([]grant.Grant, error)
}

// Decoder parses and validates user-supplied JSON.
type Decoder interface {
	DecodeInputs(data []byte) ([]grant.Input, error)
}
