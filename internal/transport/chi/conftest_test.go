package chi

import (
	"context"
	"sync"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/mode"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/discovery"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/health"
)

// --- discovery mock ---

type mockDiscovery struct {
	mu        sync.Mutex
	state     discovery.State
	text      []string
	toggled   []string
	setModeFn func(m mode.Mode) error
	cleared   int
	refreshed int
}

func (m *mockDiscovery) State() discovery.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockDiscovery) SetText(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = append(m.text, s)
	m.state.RawText = s
}

func (m *mockDiscovery) ToggleTag(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggled = append(m.toggled, tag)
}

func (m *mockDiscovery) SetMode(md mode.Mode) error {
	if m.setModeFn != nil {
		if err := m.setModeFn(md); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Mode = md
	return nil
}

func (m *mockDiscovery) ClearFilters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
	m.state.RawText = ""
	m.state.SelectedTags = nil
}

func (m *mockDiscovery) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshed++
}

// --- intake mock ---

type mockIntake struct {
	validateFn func(raw []byte) ([]grant.Grant, error)
	sendFn     func(ctx context.Context) ([]grant.Grant, error)
	preview    []grant.Grant
	sent       bool
	resets     int
}

func (m *mockIntake) Validate(raw []byte) ([]grant.Grant, error) {
	if m.validateFn != nil {
		return m.validateFn(raw)
	}
	return nil, nil
}

func (m *mockIntake) Send(ctx context.Context) ([]grant.Grant, error) {
	if m.sendFn != nil {
		return m.sendFn(ctx)
	}
	return nil, nil
}

func (m *mockIntake) Preview() []grant.Grant { return m.preview }
func (m *mockIntake) Sent() bool             { return m.sent }
func (m *mockIntake) Reset()                 { m.resets++ }
func (m *mockIntake) Sample() []byte         { return []byte(`[{"grant_name":"x"}]`) }

// --- health mock ---

type mockHealth struct {
	report health.Report
}

func (m *mockHealth) Check(context.Context) health.Report { return m.report }

// --- helpers ---

type testEnv struct {
	discovery *mockDiscovery
	intake    *mockIntake
	health    *mockHealth
	server    *Server
}

func newTestEnv() *testEnv {
	env := &testEnv{
		discovery: &mockDiscovery{state: discovery.State{Mode: mode.All}},
		intake:    &mockIntake{},
		health: &mockHealth{report: health.Report{
			Status: health.Healthy,
			Checks: map[string]health.CheckResult{health.ComponentBackend: health.CheckOK},
		}},
	}
	env.server = NewServer(env.discovery, env.intake, env.health, nil)
	return env
}

func tagged(name string, tags ...string) grant.Grant {
	return grant.Grant{
		Name:         name,
		Description:  name + " description",
		Tags:         tags,
		WebsiteURLs:  []string{},
		DocumentURLs: []string{},
	}
}
