package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyPool = errors.New("empty pool")
)

var (
	ErrInsightNotFound = fmt.Errorf("insight %w", ErrNotFound)
	ErrDraftNotFound   = fmt.Errorf("draft %w", ErrNotFound)
	ErrGroupNotFound   = fmt.Errorf("group %w", ErrNotFound)
	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)
	ErrPersonaNotFound = fmt.Errorf("persona %w", ErrNotFound)

	ErrNoAvailableProfiles = fmt.Errorf("no available profiles: %w", ErrEmptyPool)
	ErrNoResponderProfiles = fmt.Errorf("no responder profiles: %w", ErrEmptyPool)
	ErrNoTargetsInGroup    = fmt.Errorf("no chat targets in group: %w", ErrEmptyPool)
	ErrNoInsightsAvailable = fmt.Errorf("no insights available: %w", ErrEmptyPool)
	ErrCatalogEmpty        = fmt.Errorf("persona catalog is empty: %w", ErrEmptyPool)

	ErrDraftExists = errors.New("draft already exists")
)

// ResponseGenerationError wraps a completion failure for a single persona.
type ResponseGenerationError struct {
	Persona string
	Err     error
}

func (e *ResponseGenerationError) Error() string {
	return fmt.Sprintf("generate response for persona %q: %v", e.Persona, e.Err)
}

func (e *ResponseGenerationError) Unwrap() error {
	return e.Err
}

// CatalogLoadError reports a persona directory that could not be read at all.
type CatalogLoadError struct {
	Dir string
	Err error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("load persona catalog %q: %v", e.Dir, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}
