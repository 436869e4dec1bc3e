package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopChangeUnmarshal(t *testing.T) {
	data := `[
  {"type": "new", "stop_name": "Hentian Baru", "latitude": 3.15, "longitude": 101.7},
  {"type": "edit", "stop_id": 12, "changes": {"stop_name": "Hentian Diubah", "rapid_stop_id": 1002013}},
  {"type": "delete", "stop_id": 30}
]`
	changes := []StopChange{}
	require.NoError(t, json.Unmarshal([]byte(data), &changes))
	require.Len(t, changes, 3)

	require.NotNil(t, changes[0].New)
	assert.Equal(t, ChangeNew, changes[0].Type)
	assert.Equal(t, "Hentian Baru", changes[0].New.Name)

	require.NotNil(t, changes[1].Edit)
	assert.Equal(t, 12, changes[1].Edit.StopID)
	require.NotNil(t, changes[1].Edit.Changes.Name)
	assert.Equal(t, "Hentian Diubah", *changes[1].Edit.Changes.Name)
	require.NotNil(t, changes[1].Edit.Changes.RapidStopID)
	assert.Equal(t, 1002013, *changes[1].Edit.Changes.RapidStopID)
	assert.Nil(t, changes[1].Edit.Changes.Latitude)

	require.NotNil(t, changes[2].Delete)
	assert.Equal(t, 30, changes[2].Delete.StopID)
}

func TestStopChangeUnmarshalRejectsInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"unknown type":      `{"type": "rename", "stop_id": 1}`,
		"new without name":  `{"type": "new", "latitude": 3.1, "longitude": 101.6}`,
		"edit without id":   `{"type": "edit", "changes": {"stop_name": "X"}}`,
		"delete without id": `{"type": "delete"}`,
	} {
		t.Run(name, func(t *testing.T) {
			var c StopChange
			assert.Error(t, json.Unmarshal([]byte(data), &c))
		})
	}
}

func TestStopChangeMarshalRoundTrip(t *testing.T) {
	name := "Hentian Diubah"
	in := []StopChange{
		{Type: ChangeNew, New: &NewStop{Name: "Hentian Baru", Latitude: 3.15, Longitude: 101.7}},
		{Type: ChangeEdit, Edit: &EditStop{StopID: 12, Changes: StopPatch{Name: &name}}},
		{Type: ChangeDelete, Delete: &DeleteStop{StopID: 30}},
	}

	buf, err := json.Marshal(in)
	require.NoError(t, err)

	out := []StopChange{}
	require.NoError(t, json.Unmarshal(buf, &out))
	assert.Equal(t, in, out)
}

func TestApplyChanges(t *testing.T) {
	stops := []Stop{
		{ID: 1, Name: "Hentian A"},
		{ID: 2, Name: "Hentian B"},
		{ID: 5, Name: "Hentian C"},
	}

	name := "Hentian B Baru"
	out, err := ApplyChanges(stops, []StopChange{
		{Type: ChangeEdit, Edit: &EditStop{StopID: 2, Changes: StopPatch{Name: &name}}},
		{Type: ChangeDelete, Delete: &DeleteStop{StopID: 1}},
		{Type: ChangeNew, New: &NewStop{Name: "Hentian D", Latitude: 3.1, Longitude: 101.6}},
	})
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, "Hentian B Baru", out[0].Name)
	assert.Equal(t, "Hentian C", out[1].Name)

	// New stops take the next free sequential ID, past any gap.
	assert.Equal(t, 6, out[2].ID)
	assert.Equal(t, "Hentian D", out[2].Name)

	// Input untouched.
	assert.Equal(t, "Hentian B", stops[1].Name)
	assert.Len(t, stops, 3)
}

func TestApplyChangesUnknownStop(t *testing.T) {
	_, err := ApplyChanges([]Stop{{ID: 1}}, []StopChange{
		{Type: ChangeDelete, Delete: &DeleteStop{StopID: 99}},
	})
	require.Error(t, err)
	var inv *InvariantError
	assert.ErrorAs(t, err, &inv)
}

func TestTripDirection(t *testing.T) {
	d, err := TripDirection(ServiceDirectionOutbound)
	require.NoError(t, err)
	assert.Equal(t, 0, d)

	d, err = TripDirection(ServiceDirectionInbound)
	require.NoError(t, err)
	assert.Equal(t, 1, d)

	_, err = TripDirection(3)
	assert.Error(t, err)
}

func TestOldStopIDs(t *testing.T) {
	s := Stop{OldStopID: "N3146748E101662822, N3146749E101662823"}
	assert.Equal(t, []string{"N3146748E101662822", "N3146749E101662823"}, s.OldStopIDs())

	empty := Stop{}
	assert.Nil(t, empty.OldStopIDs())
}
