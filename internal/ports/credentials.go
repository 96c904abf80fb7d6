package ports

import (
	"context"

	"github.com/bnema/crowdcast/internal/domain"
)

type CredentialStore interface {
	Get(ctx context.Context, ref string) (domain.Credentials, error)
	Put(ctx context.Context, ref string, creds domain.Credentials) error
	Delete(ctx context.Context, ref string) error
}
