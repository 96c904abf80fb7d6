package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
	"go.uber.org/zap"
)

// Opener starts a session for a profile.
type Opener func(ctx context.Context, profile domain.Profile) (Session, error)

type Poster struct {
	profiles  ports.ProfileRepository
	registry  *Registry
	open      Opener
	imagesDir string
	logger    *zap.Logger
}

var _ ports.Poster = (*Poster)(nil)

func NewPoster(profiles ports.ProfileRepository, registry *Registry, open Opener, imagesDir string, logger *zap.Logger) *Poster {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Poster{
		profiles:  profiles,
		registry:  registry,
		open:      open,
		imagesDir: imagesDir,
		logger:    logger.Named("poster"),
	}
}

func (p *Poster) PublishMain(ctx context.Context, profileID domain.ProfileID, chatTarget, content string, images []string) error {
	session, err := p.session(ctx, profileID)
	if err != nil {
		return err
	}
	if err := session.Open(ctx, chatTarget); err != nil {
		return fmt.Errorf("open chat as %s: %w", profileID, err)
	}

	if files := p.resolveImages(images); len(files) > 0 {
		if err := session.Attach(ctx, files); err != nil {
			return fmt.Errorf("attach images as %s: %w", profileID, err)
		}
	}

	if err := session.Send(ctx, content); err != nil {
		return fmt.Errorf("send main post as %s: %w", profileID, err)
	}
	return nil
}

func (p *Poster) PublishResponse(ctx context.Context, profileID domain.ProfileID, chatTarget, content string) error {
	session, err := p.session(ctx, profileID)
	if err != nil {
		return err
	}
	if err := session.Open(ctx, chatTarget); err != nil {
		return fmt.Errorf("open chat as %s: %w", profileID, err)
	}
	if err := session.Send(ctx, content); err != nil {
		return fmt.Errorf("send response as %s: %w", profileID, err)
	}
	return nil
}

func (p *Poster) session(ctx context.Context, profileID domain.ProfileID) (Session, error) {
	if session, ok := p.registry.Get(profileID); ok {
		return session, nil
	}

	profile, err := p.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", profileID, err)
	}

	session, err := p.open(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := p.registry.Set(profileID, session); err != nil {
		p.logger.Warn("replace browser session", zap.String("profile_id", string(profileID)), zap.Error(err))
	}

	p.logger.Debug("browser session opened", zap.String("profile_id", string(profileID)))
	return session, nil
}

// resolveImages maps draft image names into the images directory, skipping files that are missing.
func (p *Poster) resolveImages(images []string) []string {
	files := make([]string, 0, len(images))
	for _, image := range images {
		if strings.TrimSpace(image) == "" {
			continue
		}

		path := image
		if p.imagesDir != "" {
			path = filepath.Join(p.imagesDir, filepath.Base(image))
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				p.logger.Warn("skip missing image", zap.String("path", path))
			} else {
				p.logger.Warn("skip unreadable image", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		files = append(files, path)
	}
	return files
}
