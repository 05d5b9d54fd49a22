// Package intake runs the add-grants flow: paste JSON, validate it into a
// preview, then send the preview for tagging.
package intake

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/felixrdev/grant-tagging-system/internal/domain"
	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
)

// Sample is a ready-to-validate payload with two grants.
const Sample = `[
  {
    "grant_name": "Sustainable Agriculture Research Grant",
    "grant_description": "Funding for projects that promote organic farming practices and soil conservation."
  },
  {
    "grant_name": "STEM Education Initiative",
    "grant_description": "Support for programs that encourage high school students to pursue careers in science, technology, engineering, and mathematics."
  }
]`

// Service holds the pending preview between Validate and Send.
type Service struct {
	submitter Submitter
	decoder   Decoder
	logger    *zap.Logger

	mu      sync.Mutex
	pending []grant.Input
	preview []grant.Grant
	sent    bool
	sending bool
	// gen changes on every Validate and Reset so a slow Send cannot
	// overwrite a newer preview.
	gen uint64
}

// New creates an intake service.
func New(s Submitter, d Decoder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{submitter: s, decoder: d, logger: logger}
}

// Validate parses raw and replaces the preview with untagged grants.
// On failure the preview is cleared.
func (s *Service) Validate(raw []byte) ([]grant.Grant, error) {
	inputs, err := s.decode(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.sent = false
	if err != nil {
		s.pending, s.preview = nil, nil
		return nil, err
	}
	s.pending = inputs
	s.preview = grant.Previews(inputs)
	s.logger.Debug("Grants validated", zap.Int("count", len(inputs)))
	return cloneGrants(s.preview), nil
}

// Send submits the validated preview. On success the preview becomes the
// tagged grants; on failure it is left as it was so the user can retry.
func (s *Service) Send(ctx context.Context) ([]grant.Grant, error) {
	s.mu.Lock()
	switch {
	case s.sending:
		s.mu.Unlock()
		return nil, domain.NewUserInput("a submission is already in progress", nil)
	case s.pending == nil:
		s.mu.Unlock()
		return nil, domain.NewUserInput("validate your input first", nil)
	case s.sent:
		s.mu.Unlock()
		return nil, domain.NewUserInput("these grants were already sent", nil)
	case len(s.pending) == 0:
		s.mu.Unlock()
		return nil, domain.NewUserInput("nothing to send", nil)
	}
	inputs := slices.Clone(s.pending)
	gen := s.gen
	s.sending = true
	s.mu.Unlock()

	tagged, err := s.submitter.Submit(ctx, inputs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	if err != nil {
		return nil, fmt.Errorf("send %d grant(s): %w", len(inputs), err)
	}
	if gen == s.gen {
		s.preview = tagged
		s.sent = true
	}
	s.logger.Info("Grants tagged", zap.Int("count", len(tagged)))
	return cloneGrants(tagged), nil
}

// Preview returns the current preview, or nil when nothing is validated.
func (s *Service) Preview() []grant.Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGrants(s.preview)
}

// Sent reports whether the current preview holds tagged grants.
func (s *Service) Sent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Reset drops the preview.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.pending, s.preview, s.sent = nil, nil, false
}

// Sample returns the sample payload.
func (s *Service) Sample() []byte {
	return []byte(Sample)
}

func (s *Service) decode(raw []byte) ([]grant.Input, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewUserInput("input is empty", nil)
	}
	inputs, err := s.decoder.DecodeInputs(raw)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return inputs, nil
}

func cloneGrants(gs []grant.Grant) []grant.Grant {
	if gs == nil {
		return nil
	}
	out := make([]grant.Grant, len(gs))
	for i, g := range gs {
		g.Tags = slices.Clone(g.Tags)
		g.WebsiteURLs = slices.Clone(g.WebsiteURLs)
		g.DocumentURLs = slices.Clone(g.DocumentURLs)
		out[i] = g
	}
	return out
}
