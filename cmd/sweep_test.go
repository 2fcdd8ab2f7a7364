package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/migration-sim/sim/analysis"
)

func TestSweepCommand_PrintsTableAndSavesSummary(t *testing.T) {
	// GIVEN a sweep over three speeds with an empty history
	newTestCommand(t) // reset shared flag variables left by earlier tests
	results := filepath.Join(t.TempDir(), "summary.json")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sweep", "--page-count", "32", "--speeds", "1000,2000,4000",
		"--results-path", results})

	// WHEN executed
	require.NoError(t, rootCmd.Execute())

	// THEN every point is listed and the summary covers all of them
	assert.Contains(t, out.String(), "Speed Sweep")
	assert.Contains(t, out.String(), "4000.0")

	data, err := os.ReadFile(results)
	require.NoError(t, err)
	var summary analysis.SweepSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 3, summary.Points)
	assert.Equal(t, 3, summary.Converged)
	assert.Less(t, summary.TotalTime.Min, summary.TotalTime.Max)
}

func TestLoadConfig_MigrationSection(t *testing.T) {
	path := writeFile(t, "run.yaml", testConfig)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	mc, err := cfg.Migration.MigrationConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.01, mc.DowntimeThreshold)
	assert.Equal(t, 2000.0, cfg.Channel.Speed)
	require.NotNil(t, cfg.Channel.PacketOverhead)
	assert.Equal(t, 0.1, *cfg.Channel.PacketOverhead)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
