package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionPrintsBuildVersion(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestProfilesListShowsConfiguredProfiles(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home))

	stdout, _, err := executeCLI(t, home, "profiles", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "insider\tInsider\tALPHA_INSIDER\talpha")
	assert.Contains(t, stdout, "p1\tp1\tdegen_dave\talpha")

	stdout, _, err = executeCLI(t, home, "profiles", "list", "--character", "calm_carl")
	require.NoError(t, err)
	assert.Contains(t, stdout, "p2")
	assert.NotContains(t, stdout, "p1")
}

func TestProfilesSetSessionPersistsStorage(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home))

	stdout, _, err := executeCLI(t, home, "profiles", "set-session", "p1", "--storage", "/data/p1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "updated session for p1")

	data, err := os.ReadFile(filepath.Join(home, ".crowdcast", "profiles.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "/data/p1")
}

func TestProfilesSetCredentialsRequiresPassword(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home))

	_, _, err := executeCLI(t, home, "profiles", "set-credentials", "p1", "--email", "p1@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"password\" not set")
}

func TestProfilesDeleteRemovesProfile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home))

	_, _, err := executeCLI(t, home, "profiles", "delete", "p2")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "profiles", "list")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "calm_carl")
}

func TestInsightsCountShowDelete(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeInsightFixture(home, "i-1", "Liquidity is rotating into L2s"))
	require.NoError(t, writeInsightFixture(home, "i-2", "Second insight"))

	stdout, _, err := executeCLI(t, home, "insights", "count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", stdout)

	stdout, _, err = executeCLI(t, home, "insights", "show", "i-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Liquidity is rotating into L2s")

	_, _, err = executeCLI(t, home, "insights", "delete", "i-1")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "insights", "show", "i-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insight not found")
}

func TestDraftsListEmpty(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "drafts", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No drafts saved.")
}

func TestDraftsShowAndDelete(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeDraftFixture(home, "d-1"))

	stdout, _, err := executeCLI(t, home, "drafts", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "drafts: 1")
	assert.Contains(t, stdout, "d-1")

	stdout, _, err = executeCLI(t, home, "drafts", "show", "d-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wen moon")
	assert.Contains(t, stdout, "https://app.towns.com/t/alpha-1")

	stdout, _, err = executeCLI(t, home, "drafts", "show", "d-1", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))

	_, _, err = executeCLI(t, home, "drafts", "delete", "d-1")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "drafts", "show", "d-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft not found")
}

func TestPublishDryRunKeepsDraft(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeProfilesFixture(home))
	require.NoError(t, writeDraftFixture(home, "d-1"))

	stdout, _, err := executeCLI(t, home, "publish", "d-1", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Dry run")
	assert.Contains(t, stdout, "draft: d-1")

	_, err = os.Stat(filepath.Join(home, ".crowdcast", "drafts", "discussion_d-1.json"))
	require.NoError(t, err)
}

func TestPublishUnknownDraftFails(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "publish", "missing", "--dry-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft not found")
}

func TestPersonasListAndMain(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writePersonasFixture(home))

	stdout, _, err := executeCLI(t, home, "personas", "list")
	require.NoError(t, err)
	assert.Equal(t, "ALPHA_INSIDER\ncalm_carl\ndegen_dave\n", stdout)

	t.Setenv("CROWDCAST_PERSONAS_MAIN", "ALPHA_INSIDER")
	stdout, _, err = executeCLI(t, home, "personas", "main")
	require.NoError(t, err)
	assert.Contains(t, stdout, "username: ALPHA_INSIDER")
}

func TestPlanGeneratesDraftThroughCompletionAPI(t *testing.T) {
	server := newCompletionServer(t, "Solid point, watching this closely!", 0)
	t.Setenv("CROWDCAST_LLM_BASE_URL", server.URL)

	home := t.TempDir()
	require.NoError(t, writePlanFixtures(home))

	stdout, _, err := executeCLI(t, home, "plan", "--group", "alpha", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Draft saved")
	assert.Contains(t, stdout, "chat: https://app.towns.com/t/alpha-1")
	assert.Contains(t, stdout, "main: Insider (insider) [ALPHA_INSIDER]")
	assert.Contains(t, stdout, "responses: 2")

	entries, err := os.ReadDir(filepath.Join(home, ".crowdcast", "drafts"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(home, ".crowdcast", "drafts", entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Solid point watching this closely")

	stdout, _, err = executeCLI(t, home, "insights", "count")
	require.NoError(t, err)
	assert.Equal(t, "0\n", stdout)
}

func TestPlanShowsSpinnerMessage(t *testing.T) {
	server := newCompletionServer(t, "nice", 200*time.Millisecond)
	t.Setenv("CROWDCAST_LLM_BASE_URL", server.URL)

	home := t.TempDir()
	require.NoError(t, writePlanFixtures(home))

	_, stderr, err := executeCLI(t, home, "plan", "--group", "alpha")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Generating responses")
}

func TestPlanUnknownGroupFailsBeforeGeneration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("completion API must not be called")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	t.Setenv("CROWDCAST_LLM_BASE_URL", server.URL)

	home := t.TempDir()
	require.NoError(t, writePlanFixtures(home))

	_, _, err := executeCLI(t, home, "plan", "--group", "nope", "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group not found")

	stdout, _, err := executeCLI(t, home, "insights", "count")
	require.NoError(t, err)
	assert.Equal(t, "1\n", stdout)
}

func TestPlanUnknownProviderFails(t *testing.T) {
	t.Setenv("CROWDCAST_LLM_PROVIDER", "carrier-pigeon")

	home := t.TempDir()
	require.NoError(t, writePlanFixtures(home))

	_, _, err := executeCLI(t, home, "plan", "--group", "alpha", "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestCaptchaSolvePrintsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/task/noname" {
			_, _ = fmt.Fprint(w, `{"message":"Task created","task_id":"t-1"}`)
			return
		}
		_, _ = fmt.Fprint(w, `{"status":"completed","result":{"solution":"token-xyz"}}`)
	}))
	defer server.Close()
	t.Setenv("CROWDCAST_CAPTCHA_BASE_URL", server.URL)

	stdout, _, err := executeCLI(t, t.TempDir(), "captcha", "solve", "--site-key", "k", "--url", "https://x")
	require.NoError(t, err)
	assert.Equal(t, "token-xyz\n", stdout)
}

func TestConfigFileOverridesPaths(t *testing.T) {
	home := t.TempDir()
	insightsDir := filepath.Join(t.TempDir(), "custom-insights")
	require.NoError(t, os.MkdirAll(insightsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(insightsDir, "x.json"), []byte(`{"content":"hi"}`), 0o644))

	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf("[insights]\ndir = %q\n", insightsDir)), 0o644))
	t.Setenv("CROWDCAST_CONFIG", configPath)

	stdout, _, err := executeCLI(t, home, "insights", "count")
	require.NoError(t, err)
	assert.Equal(t, "1\n", stdout)
}

func TestExplicitMissingConfigFails(t *testing.T) {
	t.Setenv("CROWDCAST_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	_, _, err := executeCLI(t, t.TempDir(), "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat config file")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func newCompletionServer(t *testing.T, reply string, latency time.Duration) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		time.Sleep(latency)
		body, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func crowdcastDir(home string, parts ...string) (string, error) {
	dir := filepath.Join(append([]string{home, ".crowdcast"}, parts...)...)
	return dir, os.MkdirAll(dir, 0o755)
}

func writeProfilesFixture(home string) error {
	dir, err := crowdcastDir(home)
	if err != nil {
		return err
	}

	profiles := `version = 1

[[profiles]]
id = "insider"
name = "Insider"
character = "ALPHA_INSIDER"
tags = ["alpha"]

[[profiles]]
id = "p1"
character = "degen_dave"
tags = ["alpha"]

[[profiles]]
id = "p2"
character = "calm_carl"
tags = ["alpha"]
`

	return os.WriteFile(filepath.Join(dir, "profiles.toml"), []byte(profiles), 0o600)
}

func writePersonasFixture(home string) error {
	dir, err := crowdcastDir(home, "personas")
	if err != nil {
		return err
	}

	files := map[string]string{
		"insider.json": `{"username":"ALPHA_INSIDER","bio":"knows things early"}`,
		"dave.yaml":    "username: degen_dave\nstyle: all caps energy\n",
		"carl.yml":     "username: calm_carl\nstyle: measured\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeInsightFixture(home, id, content string) error {
	dir, err := crowdcastDir(home, "insights")
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{"postId": 42, "content": content, "images": []string{}})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, id+".json"), body, 0o644)
}

func writeDraftFixture(home, id string) error {
	dir, err := crowdcastDir(home, "drafts")
	if err != nil {
		return err
	}

	draft := fmt.Sprintf(`{
  "id": %q,
  "createdAt": "2026-02-14T10:00:00Z",
  "chatUrl": "https://app.towns.com/t/alpha-1",
  "groupTag": "alpha",
  "mainProfile": {"profileId": "insider", "profileName": "Insider", "character": "ALPHA_INSIDER"},
  "insight": {"id": "i-1", "content": "Liquidity is rotating into L2s", "images": []},
  "responses": [
    {"profileId": "p1", "profileName": "p1", "character": "degen_dave", "content": "wen moon", "delay": 1200},
    {"profileId": "p2", "profileName": "p2", "character": "calm_carl", "content": "interesting", "delay": 2400}
  ],
  "settings": {"messageDelay": {"min": 1000, "max": 3000}, "minProfiles": 1, "maxProfiles": 2}
}`, id)

	return os.WriteFile(filepath.Join(dir, "discussion_"+id+".json"), []byte(draft), 0o644)
}

func writePlanFixtures(home string) error {
	if err := writeProfilesFixture(home); err != nil {
		return err
	}
	if err := writePersonasFixture(home); err != nil {
		return err
	}
	if err := writeInsightFixture(home, "i-1", "Liquidity is rotating into L2s"); err != nil {
		return err
	}

	dir, err := crowdcastDir(home)
	if err != nil {
		return err
	}

	settings := `{"messageDelay":{"min":1000,"max":3000},"minProfiles":2,"maxProfiles":2}`
	if err := os.WriteFile(filepath.Join(dir, "discussion_settings.json"), []byte(settings), 0o644); err != nil {
		return err
	}

	groups := `{"groups":[{"groupTag":"alpha","chatUrls":["https://app.towns.com/t/alpha-1"]}]}`
	return os.WriteFile(filepath.Join(dir, "groups.json"), []byte(strings.TrimSpace(groups)), 0o644)
}
