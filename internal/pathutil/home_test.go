package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "tilde only", in: "~", want: homeDir},
		{name: "tilde slash", in: "~/insights", want: filepath.Join(homeDir, "insights")},
		{name: "absolute", in: "/var/lib/crowdcast", want: "/var/lib/crowdcast"},
		{name: "relative", in: "data/drafts", want: "data/drafts"},
		{name: "other user", in: "~bob/x", want: "~bob/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandHome(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	got, err := Resolve("  ~/ins/../drafts ")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "drafts"), got)

	got, err = Resolve("rel")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
