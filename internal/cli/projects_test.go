package cli

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cribeiro84/prhub/internal/hub"
	"github.com/cribeiro84/prhub/internal/model"
)

func TestRunProjects(t *testing.T) {
	setupCLI(t, testGateway())

	out := captureStdout(t, func() {
		require.NoError(t, runProjects(testCommand(), &projectsOptions{}))
	})
	assert.Contains(t, out, "p1")

	globalOpts.JSON = true
	out = captureStdout(t, func() {
		require.NoError(t, runProjects(testCommand(), &projectsOptions{Repos: true}))
	})
	var got struct {
		Items []repositoryOutput `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, repositoryOutput{ID: "r-api", Name: "api", Project: "proj"}, got.Items[0])
}

func TestRunFacetsTSV(t *testing.T) {
	setupCLI(t, testGateway())
	globalOpts.TSV = true

	out := captureStdout(t, func() {
		require.NoError(t, runFacets(testCommand(), &facetsOptions{Tab: "active", Kind: "author"}))
	})
	assert.Equal(t, "author\tu-ana\tAna\nauthor\tu-bo\tBo\n", out)

	assert.Error(t, runFacets(testCommand(), &facetsOptions{Tab: "active", Kind: "colour"}))
}

func TestOutputFacetsJSON(t *testing.T) {
	resetGlobalOpts(t)
	globalOpts.JSON = true

	facets := hub.BuildFacets([]hub.Row{{Repository: model.Repository{ID: "r1", Name: "api"}}})
	out := captureStdout(t, func() {
		require.NoError(t, outputFacets(os.Stdout, facets, model.FacetKinds))
	})
	assert.True(t, strings.Contains(out, `"repository"`) && strings.Contains(out, `"key": "r1"`), out)
}
