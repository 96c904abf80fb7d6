// Package mocks holds testify mocks for the ports consumed by the application layer.
package mocks

import (
	"context"
	"time"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type MockPoster struct{ mock.Mock }

var _ ports.Poster = (*MockPoster)(nil)

func NewMockPoster(t testingT) *MockPoster {
	m := &MockPoster{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPoster) PublishMain(ctx context.Context, profileID domain.ProfileID, chatTarget, content string, images []string) error {
	args := m.Called(ctx, profileID, chatTarget, content, images)
	return args.Error(0)
}

func (m *MockPoster) PublishResponse(ctx context.Context, profileID domain.ProfileID, chatTarget, content string) error {
	args := m.Called(ctx, profileID, chatTarget, content)
	return args.Error(0)
}

type MockCompleter struct{ mock.Mock }

var _ ports.Completer = (*MockCompleter)(nil)

func NewMockCompleter(t testingT) *MockCompleter {
	m := &MockCompleter{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCompleter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockProfileRepository struct{ mock.Mock }

var _ ports.ProfileRepository = (*MockProfileRepository)(nil)

func NewMockProfileRepository(t testingT) *MockProfileRepository {
	m := &MockProfileRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	args := m.Called(ctx)
	profiles, _ := args.Get(0).([]domain.Profile)
	return profiles, args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, profile domain.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockProfileRepository) Delete(ctx context.Context, id domain.ProfileID) error {
	return m.Called(ctx, id).Error(0)
}

type MockMessageHistory struct{ mock.Mock }

var _ ports.MessageHistory = (*MockMessageHistory)(nil)

func NewMockMessageHistory(t testingT) *MockMessageHistory {
	m := &MockMessageHistory{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockMessageHistory) Append(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

// MockClock records requested sleeps instead of waiting.
type MockClock struct {
	NowValue time.Time
	Slept    []time.Duration
}

var _ ports.Clock = (*MockClock)(nil)

func (c *MockClock) Now() time.Time {
	return c.NowValue
}

func (c *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Slept = append(c.Slept, d)
	return nil
}

type MockCredentialStore struct{ mock.Mock }

var _ ports.CredentialStore = (*MockCredentialStore)(nil)

func NewMockCredentialStore(t testingT) *MockCredentialStore {
	m := &MockCredentialStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialStore) Get(ctx context.Context, ref string) (domain.Credentials, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(domain.Credentials), args.Error(1)
}

func (m *MockCredentialStore) Put(ctx context.Context, ref string, creds domain.Credentials) error {
	return m.Called(ctx, ref, creds).Error(0)
}

func (m *MockCredentialStore) Delete(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}
