package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
)

var ErrCredentialsNotSet = errors.New("profile has no credentials locator")

type ProfileService struct {
	repo  ports.ProfileRepository
	store ports.CredentialStore
}

func NewProfileService(repo ports.ProfileRepository, store ports.CredentialStore) *ProfileService {
	return &ProfileService{repo: repo, store: store}
}

func (s *ProfileService) List(ctx context.Context, filter domain.ProfileFilter) ([]domain.Profile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return domain.FilterProfiles(profiles, filter), nil
}

func (s *ProfileService) Get(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile by id: %w", err)
	}
	return profile, nil
}

// SetSessionLocator updates where a profile's browser session and credentials live.
// An empty credentialsLocator keeps the current one.
func (s *ProfileService) SetSessionLocator(ctx context.Context, id domain.ProfileID, storageLocator, credentialsLocator string) error {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get profile by id: %w", err)
	}

	profile.StorageLocator = strings.TrimSpace(storageLocator)
	if locator := strings.TrimSpace(credentialsLocator); locator != "" {
		profile.CredentialsLocator = locator
	}

	if err := s.repo.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile session: %w", err)
	}
	return nil
}

func CredentialsRef(id domain.ProfileID) string {
	return "profiles/" + string(id)
}

// SetCredentials stores creds and points the profile at them, undoing the store write if the profile save fails.
func (s *ProfileService) SetCredentials(ctx context.Context, id domain.ProfileID, creds domain.Credentials) error {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get profile by id: %w", err)
	}

	ref := CredentialsRef(id)
	previousRef := profile.CredentialsLocator

	if err := s.store.Put(ctx, ref, creds); err != nil {
		return fmt.Errorf("store profile credentials: %w", err)
	}

	profile.CredentialsLocator = ref
	if err := s.repo.Save(ctx, profile); err != nil {
		if rollbackErr := s.store.Delete(ctx, ref); rollbackErr != nil {
			return fmt.Errorf("save profile credentials and rollback stored secret: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("save profile credentials: %w", err)
	}

	if previousRef != "" && previousRef != ref {
		if err := s.store.Delete(ctx, previousRef); err != nil {
			return fmt.Errorf("delete previous profile credentials: %w", err)
		}
	}
	return nil
}

func (s *ProfileService) Credentials(ctx context.Context, id domain.ProfileID) (domain.Credentials, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("get profile by id: %w", err)
	}
	if strings.TrimSpace(profile.CredentialsLocator) == "" {
		return domain.Credentials{}, fmt.Errorf("%s: %w", id, ErrCredentialsNotSet)
	}

	creds, err := s.store.Get(ctx, profile.CredentialsLocator)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("get profile credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the profile and its stored credentials. Unknown ids are a no-op.
func (s *ProfileService) Delete(ctx context.Context, id domain.ProfileID) error {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil
		}
		return fmt.Errorf("get profile by id: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	if profile.CredentialsLocator != "" {
		if err := s.store.Delete(ctx, profile.CredentialsLocator); err != nil {
			if restoreErr := s.repo.Save(ctx, profile); restoreErr != nil {
				return fmt.Errorf("delete profile credentials and restore profile: %w", errors.Join(err, restoreErr))
			}
			return fmt.Errorf("delete profile credentials: %w", err)
		}
	}
	return nil
}
