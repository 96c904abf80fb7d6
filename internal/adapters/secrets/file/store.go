package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
	"github.com/pelletier/go-toml/v2"
)

const (
	storeDirMode  = 0o700
	secretFileMod = 0o600
	secretExt     = ".toml"
)

// Store keeps one TOML document per reference under root.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.CredentialStore = (*Store)(nil)

type credentialsSchema struct {
	Email      string `toml:"email"`
	Password   string `toml:"password"`
	IMAPServer string `toml:"imap_server,omitempty"`
}

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Put(ctx context.Context, ref string, creds domain.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForRef(ref)
	if err != nil {
		return err
	}

	data, err := toml.Marshal(credentialsSchema{
		Email:      creds.Email,
		Password:   creds.Password,
		IMAPServer: creds.IMAPServer,
	})
	if err != nil {
		return fmt.Errorf("encode credentials %q: %w", ref, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	if err := os.WriteFile(path, data, secretFileMod); err != nil {
		return fmt.Errorf("write credentials %q: %w", ref, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, ref string) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, err
	}

	path, err := s.pathForRef(ref)
	if err != nil {
		return domain.Credentials{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Credentials{}, fmt.Errorf("credentials %q not found: %w", ref, err)
		}
		return domain.Credentials{}, fmt.Errorf("read credentials %q: %w", ref, err)
	}

	var decoded credentialsSchema
	if err := toml.Unmarshal(data, &decoded); err != nil {
		return domain.Credentials{}, fmt.Errorf("decode credentials %q: %w", ref, err)
	}

	return domain.Credentials{
		Email:      decoded.Email,
		Password:   decoded.Password,
		IMAPServer: decoded.IMAPServer,
	}, nil
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForRef(ref)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete credentials %q: %w", ref, err)
	}

	return nil
}

func (s *Store) pathForRef(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", errors.New("credentials ref is empty")
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", fmt.Errorf("invalid credentials ref %q", ref)
	}

	return filepath.Join(s.root, cleaned+secretExt), nil
}
