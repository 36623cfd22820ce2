package service

import (
	"context"

	"github.com/xiaot623/chatrelay/internal/domain"
)

// ResolveCitation fetches citation evidence for an authenticated caller and
// returns it unmodified. Nothing is cached.
func (s *Service) ResolveCitation(ctx context.Context, carrier string, req domain.CitationRequest) (*domain.Evidence, error) {
	session, err := s.ResolveSession(ctx, carrier)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := s.backendContext(ctx)
	defer cancel()
	return s.backend.FetchCitationEvidence(callCtx, session.BackendToken(), req)
}
