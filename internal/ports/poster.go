package ports

import (
	"context"

	"github.com/bnema/crowdcast/internal/domain"
)

// Poster delivers messages to a chat surface as a given profile.
type Poster interface {
	PublishMain(ctx context.Context, profileID domain.ProfileID, chatTarget, content string, images []string) error
	PublishResponse(ctx context.Context, profileID domain.ProfileID, chatTarget, content string) error
}
