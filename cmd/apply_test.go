package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kltransit.dev/pipeline/model"
)

func TestApply(t *testing.T) {
	dir := t.TempDir()

	stops := []model.Stop{
		{ID: 1, Code: "KL1234", Name: "Hentian Lebuhraya", Latitude: 3.146, Longitude: 101.662},
		{ID: 2, Name: "Hentian Besar", Latitude: 3.151, Longitude: 101.69},
	}
	buf, err := json.Marshal(stops)
	require.NoError(t, err)
	stopsPath := filepath.Join(dir, "stops.json")
	require.NoError(t, os.WriteFile(stopsPath, buf, 0o644))

	changes := filepath.Join(dir, "changes.json")
	require.NoError(t, os.WriteFile(changes, []byte(`[
		{"type": "edit", "stop_id": 1, "changes": {"stop_name": "Hentian Baru"}},
		{"type": "delete", "stop_id": 2},
		{"type": "new", "stop_name": "Hentian Tambahan", "latitude": 3.18, "longitude": 101.62}
	]`), 0o644))

	applyStopsPath = stopsPath
	changesPath = changes
	defer func() { applyStopsPath, changesPath = "out/stops.json", "" }()

	require.NoError(t, apply(applyCmd, nil))

	buf, err = os.ReadFile(stopsPath)
	require.NoError(t, err)
	var updated []model.Stop
	require.NoError(t, json.Unmarshal(buf, &updated))

	require.Len(t, updated, 2)
	assert.Equal(t, "Hentian Baru", updated[0].Name)
	assert.Equal(t, "KL1234", updated[0].Code)
	assert.Equal(t, 3, updated[1].ID)
	assert.Equal(t, "Hentian Tambahan", updated[1].Name)

	csvBuf, err := os.ReadFile(filepath.Join(dir, "stops.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csvBuf), "Hentian Baru")
}

func TestApplyRequiresChanges(t *testing.T) {
	changesPath = ""
	assert.Error(t, apply(applyCmd, nil))
}
