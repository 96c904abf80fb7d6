package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/crowdcast/internal/adapters/secrets/file"
	passstore "github.com/bnema/crowdcast/internal/adapters/secrets/pass"
	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
)

type Store struct {
	primary  ports.CredentialStore
	fallback ports.CredentialStore
}

var _ ports.CredentialStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary credential store is nil")
	errNilFallbackStore = errors.New("fallback credential store is nil")
)

func NewStore(primary ports.CredentialStore, fallback ports.CredentialStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, ref string, creds domain.Credentials) error {
	err := s.primary.Put(ctx, ref, creds)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Put(ctx, ref, creds)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, ref string) (domain.Credentials, error) {
	creds, err := s.primary.Get(ctx, ref)
	if err == nil {
		return creds, nil
	}
	if shouldSkipFallback(err) {
		return domain.Credentials{}, err
	}

	fallbackCreds, fallbackErr := s.fallback.Get(ctx, ref)
	if fallbackErr == nil {
		return fallbackCreds, nil
	}

	return domain.Credentials{}, fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Delete clears both backends so a fallback copy does not outlive the primary one.
func (s *Store) Delete(ctx context.Context, ref string) error {
	err := s.primary.Delete(ctx, ref)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, ref)
	if err == nil || fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
