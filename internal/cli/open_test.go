package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cribeiro84/prhub/internal/prefs"
	"github.com/cribeiro84/prhub/internal/store/file"
)

func TestParsePullRequestID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "42", want: 42},
		{raw: "!42", want: 42},
		{raw: " 7 ", want: 7},
		{raw: "0", wantErr: true},
		{raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parsePullRequestID(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}

func TestRunOpenPrintsURLAndRecordsVisit(t *testing.T) {
	storage := setupCLI(t, testGateway())
	before := time.Now().Add(-time.Second)

	out := captureStdout(t, func() {
		require.NoError(t, runOpen(testCommand(), "!101", &openOptions{Tab: "active", PrintOnly: true}))
	})
	assert.Equal(t, "https://dev.azure.com/org/proj/_git/api/pullrequest/101", strings.TrimSpace(out))

	st, err := file.New(storage)
	require.NoError(t, err)
	assert.True(t, prefs.NewVisits(st).Load(101).After(before))
}

func TestRunOpenNotFound(t *testing.T) {
	setupCLI(t, testGateway())

	err := runOpen(testCommand(), "999", &openOptions{Tab: "active", PrintOnly: true})
	require.ErrorIs(t, err, errPullRequestNotFound)
	assert.Equal(t, ExitNotFound, exitCode(err))
}
