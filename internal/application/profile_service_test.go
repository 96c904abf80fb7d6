package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProfileServiceListFilters(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, mocks.NewMockCredentialStore(t))

	repo.On("List", mockAnyContext()).Return([]domain.Profile{
		{ID: "p1", Character: "whale", Tags: []string{"alpha"}},
		{ID: "p2", Character: "degen", Tags: []string{"ALPHA", "beta"}},
		{ID: "p3", Character: "whale", Tags: []string{"beta"}},
	}, nil).Twice()

	profiles, err := service.List(context.Background(), domain.ProfileFilter{Tag: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ProfileID{"p1", "p2"}, profileIDs(profiles))

	profiles, err = service.List(context.Background(), domain.ProfileFilter{Tag: "beta", Character: "Whale"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ProfileID{"p3"}, profileIDs(profiles))
}

func TestProfileServiceSetSessionLocator(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, mocks.NewMockCredentialStore(t))

	repo.On("GetByID", mockAnyContext(), domain.ProfileID("p1")).Return(domain.Profile{
		ID: "p1", Character: "whale", CredentialsLocator: "profiles/p1",
	}, nil).Once()
	repo.On("Save", mockAnyContext(), domain.Profile{
		ID: "p1", Character: "whale", StorageLocator: "/data/sessions/p1", CredentialsLocator: "profiles/p1",
	}).Return(nil).Once()

	err := service.SetSessionLocator(context.Background(), "p1", " /data/sessions/p1 ", "")
	require.NoError(t, err)
}

func TestProfileServiceSetSessionLocatorUnknownProfile(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, mocks.NewMockCredentialStore(t))

	repo.On("GetByID", mockAnyContext(), domain.ProfileID("ghost")).Return(domain.Profile{}, domain.ErrProfileNotFound).Once()

	err := service.SetSessionLocator(context.Background(), "ghost", "/tmp", "")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestProfileServiceSetCredentialsRotatesPreviousRef(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	store := mocks.NewMockCredentialStore(t)
	service := NewProfileService(repo, store)

	creds := domain.Credentials{Email: "p1@example.com", Password: "hunter2"}
	repo.On("GetByID", mockAnyContext(), domain.ProfileID("p1")).Return(domain.Profile{
		ID: "p1", Character: "whale", CredentialsLocator: "legacy/p1",
	}, nil).Once()
	store.On("Put", mockAnyContext(), "profiles/p1", creds).Return(nil).Once()
	repo.On("Save", mockAnyContext(), mock.MatchedBy(func(p domain.Profile) bool {
		return p.ID == "p1" && p.CredentialsLocator == "profiles/p1"
	})).Return(nil).Once()
	store.On("Delete", mockAnyContext(), "legacy/p1").Return(nil).Once()

	require.NoError(t, service.SetCredentials(context.Background(), "p1", creds))
}

func TestProfileServiceSetCredentialsRollsBackOnSaveFailure(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	store := mocks.NewMockCredentialStore(t)
	service := NewProfileService(repo, store)

	saveErr := errors.New("disk full")
	creds := domain.Credentials{Email: "p1@example.com"}
	repo.On("GetByID", mockAnyContext(), domain.ProfileID("p1")).Return(domain.Profile{ID: "p1", Character: "whale"}, nil).Once()
	store.On("Put", mockAnyContext(), "profiles/p1", creds).Return(nil).Once()
	repo.On("Save", mockAnyContext(), mock.Anything).Return(saveErr).Once()
	store.On("Delete", mockAnyContext(), "profiles/p1").Return(nil).Once()

	err := service.SetCredentials(context.Background(), "p1", creds)
	require.ErrorIs(t, err, saveErr)
}

func TestProfileServiceCredentials(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	store := mocks.NewMockCredentialStore(t)
	service := NewProfileService(repo, store)

	repo.On("GetByID", mockAnyContext(), domain.ProfileID("p1")).Return(domain.Profile{ID: "p1", CredentialsLocator: "profiles/p1"}, nil).Once()
	repo.On("GetByID", mockAnyContext(), domain.ProfileID("p2")).Return(domain.Profile{ID: "p2"}, nil).Once()
	store.On("Get", mockAnyContext(), "profiles/p1").Return(domain.Credentials{Email: "p1@example.com"}, nil).Once()

	creds, err := service.Credentials(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1@example.com", creds.Email)

	_, err = service.Credentials(context.Background(), "p2")
	require.ErrorIs(t, err, ErrCredentialsNotSet)
}

func TestProfileServiceDeleteIsIdempotent(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	store := mocks.NewMockCredentialStore(t)
	service := NewProfileService(repo, store)

	repo.On("GetByID", mockAnyContext(), domain.ProfileID("p1")).Return(domain.Profile{ID: "p1", CredentialsLocator: "profiles/p1"}, nil).Once()
	repo.On("Delete", mockAnyContext(), domain.ProfileID("p1")).Return(nil).Once()
	store.On("Delete", mockAnyContext(), "profiles/p1").Return(nil).Once()
	repo.On("GetByID", mockAnyContext(), domain.ProfileID("p1")).Return(domain.Profile{}, domain.ErrProfileNotFound).Once()

	require.NoError(t, service.Delete(context.Background(), "p1"))
	require.NoError(t, service.Delete(context.Background(), "p1"))
}

func profileIDs(profiles []domain.Profile) []domain.ProfileID {
	ids := make([]domain.ProfileID, 0, len(profiles))
	for _, profile := range profiles {
		ids = append(ids, profile.ID)
	}
	return ids
}

func mockAnyContext() interface{} {
	return mock.Anything
}
