package health

import "context"

// BackendChecker checks the grant service.
type BackendChecker interface {
	Health(ctx context.Context) error
}

// CachePinger checks the listing cache store.
type CachePinger interface {
	Ping(ctx context.Context) error
}
