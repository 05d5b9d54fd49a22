package chi

import (
	"context"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/mode"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/discovery"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/health"
)

// Discovery is the part of the discovery controller the bridge drives.
type Discovery interface {
	State() discovery.State
	SetText(s string)
	ToggleTag(tag string)
	SetMode(m mode.Mode) error
	ClearFilters()
	Refresh()
}

// Intake is the add-grants flow.
type Intake interface {
	Validate(raw []byte) ([]grant.Grant, error)
	Send(ctx context.Context) ([]grant.Grant, error)
	Preview() []grant.Grant
	Sent() bool
	Reset()
	Sample() []byte
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
