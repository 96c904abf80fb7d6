package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeProfilesFixture(home))

	_, stderr, err := runCrowdcast(t, binaryPath, home,
		"profiles", "set-session", "insider",
		"--storage", filepath.Join(home, "sessions", "insider"),
	)
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runCrowdcast(t, binaryPath, home, "profiles", "list", "--tag", "alpha")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "insider\tInsider\tALPHA_INSIDER")

	stdout, stderr, err = runCrowdcast(t, binaryPath, home, "drafts", "list")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "drafts: 0")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "crowdcast-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/crowdcast")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build crowdcast binary: %s", string(output))
	return binaryPath
}

func runCrowdcast(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeProfilesFixture(home string) error {
	configDir := filepath.Join(home, ".crowdcast")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	profiles := `version = 1

[[profiles]]
id = "insider"
name = "Insider"
character = "ALPHA_INSIDER"
tags = ["alpha"]
`

	return os.WriteFile(filepath.Join(configDir, "profiles.toml"), []byte(profiles), 0o600)
}
