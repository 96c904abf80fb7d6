package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

const (
	emailField = "email"
	imapField  = "imap"
)

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// Store keeps credentials as multiline pass entries: the password on the
// first line followed by "key: value" fields.
type Store struct {
	run runFunc
}

var _ ports.CredentialStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{run: runPassCommand}
}

func (s *Store) Put(ctx context.Context, ref string, creds domain.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, encodeEntry(creds), "insert", "-m", "-f", ref)
	if err != nil {
		return formatError("put", ref, err, stderr)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, ref string) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, err
	}

	stdout, stderr, err := s.run(ctx, "", "show", ref)
	if err != nil {
		return domain.Credentials{}, formatError("get", ref, err, stderr)
	}

	return decodeEntry(stdout), nil
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, "", "rm", "-f", ref)
	if err != nil {
		return formatError("delete", ref, err, stderr)
	}

	return nil
}

func encodeEntry(creds domain.Credentials) string {
	var b strings.Builder
	b.WriteString(creds.Password)
	b.WriteString("\n")
	b.WriteString(emailField + ": " + creds.Email + "\n")
	if creds.IMAPServer != "" {
		b.WriteString(imapField + ": " + creds.IMAPServer + "\n")
	}
	return b.String()
}

func decodeEntry(entry string) domain.Credentials {
	entry = strings.ReplaceAll(entry, "\r\n", "\n")
	lines := strings.Split(strings.TrimSuffix(entry, "\n"), "\n")

	creds := domain.Credentials{Password: lines[0]}
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case emailField:
			creds.Email = strings.TrimSpace(value)
		case imapField:
			creds.IMAPServer = strings.TrimSpace(value)
		}
	}
	return creds
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, ref string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, ref, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, ref, err, stderr)
}
