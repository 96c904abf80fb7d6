package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/crowdcast/internal/domain"
)

// Session is an open chat page bound to one profile.
type Session interface {
	Open(ctx context.Context, url string) error
	Attach(ctx context.Context, files []string) error
	Send(ctx context.Context, text string) error
	Close() error
}

// Registry tracks live sessions per profile. The owner calls CloseAll when done.
type Registry struct {
	mu       sync.Mutex
	sessions map[domain.ProfileID]Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[domain.ProfileID]Session{}}
}

func (r *Registry) Get(id domain.ProfileID) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	return session, ok
}

// Set stores session for id, closing any session it replaces.
func (r *Registry) Set(id domain.ProfileID, session Session) error {
	r.mu.Lock()
	previous, ok := r.sessions[id]
	r.sessions[id] = session
	r.mu.Unlock()

	if ok && previous != session {
		if err := previous.Close(); err != nil {
			return fmt.Errorf("close replaced session %s: %w", id, err)
		}
	}
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) CloseAll() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[domain.ProfileID]Session{}
	r.mu.Unlock()

	var closeErr error
	for id, session := range sessions {
		if err := session.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close session %s: %w", id, err))
		}
	}
	return closeErr
}
