package ports

import (
	"context"
	"time"
)

type EmailCodeReader interface {
	AwaitCode(ctx context.Context, timeout time.Duration) (string, error)
}

type CaptchaSolver interface {
	Solve(ctx context.Context, siteKey, pageURL string) (string, error)
}
