package model

import (
	"encoding/json"
	"fmt"
)

// Suggested edits arrive from the review workflow as JSON payloads.
// Each payload is one of three operations with a distinct required
// field set, so StopChange is a tagged union rather than an untyped
// field bag.

type ChangeType string

const (
	ChangeNew    ChangeType = "new"
	ChangeEdit   ChangeType = "edit"
	ChangeDelete ChangeType = "delete"
)

// Fields of an edit operation. Nil pointers mean "leave unchanged".
type StopPatch struct {
	Code        *string  `json:"stop_code,omitempty"`
	Name        *string  `json:"stop_name,omitempty"`
	StreetName  *string  `json:"street_name,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	RapidStopID *int     `json:"rapid_stop_id,omitempty"`
	MRTStopID   *int     `json:"mrt_stop_id,omitempty"`
}

type NewStop struct {
	Code       string  `json:"stop_code,omitempty"`
	Name       string  `json:"stop_name"`
	StreetName string  `json:"street_name,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

type EditStop struct {
	StopID  int       `json:"stop_id"`
	Changes StopPatch `json:"changes"`
}

type DeleteStop struct {
	StopID int `json:"stop_id"`
}

// Exactly one of New, Edit, Delete is set, matching Type.
type StopChange struct {
	Type   ChangeType
	New    *NewStop
	Edit   *EditStop
	Delete *DeleteStop
}

func (c *StopChange) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Type ChangeType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decoding change envelope: %w", err)
	}

	c.Type = envelope.Type
	switch envelope.Type {
	case ChangeNew:
		c.New = &NewStop{}
		if err := json.Unmarshal(data, c.New); err != nil {
			return fmt.Errorf("decoding new-stop change: %w", err)
		}
		if c.New.Name == "" {
			return fmt.Errorf("new-stop change requires stop_name")
		}
	case ChangeEdit:
		c.Edit = &EditStop{}
		if err := json.Unmarshal(data, c.Edit); err != nil {
			return fmt.Errorf("decoding edit-stop change: %w", err)
		}
		if c.Edit.StopID == 0 {
			return fmt.Errorf("edit-stop change requires stop_id")
		}
	case ChangeDelete:
		c.Delete = &DeleteStop{}
		if err := json.Unmarshal(data, c.Delete); err != nil {
			return fmt.Errorf("decoding delete-stop change: %w", err)
		}
		if c.Delete.StopID == 0 {
			return fmt.Errorf("delete-stop change requires stop_id")
		}
	default:
		return fmt.Errorf("unknown change type %q", envelope.Type)
	}

	return nil
}

func (c StopChange) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ChangeNew:
		return json.Marshal(struct {
			Type ChangeType `json:"type"`
			*NewStop
		}{c.Type, c.New})
	case ChangeEdit:
		return json.Marshal(struct {
			Type ChangeType `json:"type"`
			*EditStop
		}{c.Type, c.Edit})
	case ChangeDelete:
		return json.Marshal(struct {
			Type ChangeType `json:"type"`
			*DeleteStop
		}{c.Type, c.Delete})
	}
	return nil, fmt.Errorf("unknown change type %q", c.Type)
}

// Absorbs approved edits into a canonical stop set, returning the new
// set. New stops are appended with the next free sequential ID. The
// input slice is not modified. An edit or delete referencing a stop
// that does not exist breaks the canonical-set invariant and is an
// error.
func ApplyChanges(stops []Stop, changes []StopChange) ([]Stop, error) {
	out := make([]Stop, len(stops))
	copy(out, stops)

	index := map[int]int{}
	nextID := 1
	for i, s := range out {
		index[s.ID] = i
		if s.ID >= nextID {
			nextID = s.ID + 1
		}
	}

	for _, c := range changes {
		switch c.Type {
		case ChangeNew:
			out = append(out, Stop{
				ID:         nextID,
				Code:       c.New.Code,
				Name:       c.New.Name,
				StreetName: c.New.StreetName,
				Latitude:   c.New.Latitude,
				Longitude:  c.New.Longitude,
			})
			index[nextID] = len(out) - 1
			nextID++

		case ChangeEdit:
			i, found := index[c.Edit.StopID]
			if !found {
				return nil, Invariant("apply-changes", "edit references unknown stop %d", c.Edit.StopID)
			}
			patch := c.Edit.Changes
			stop := &out[i]
			if patch.Code != nil {
				stop.Code = *patch.Code
			}
			if patch.Name != nil {
				stop.Name = *patch.Name
			}
			if patch.StreetName != nil {
				stop.StreetName = *patch.StreetName
			}
			if patch.Latitude != nil {
				stop.Latitude = *patch.Latitude
			}
			if patch.Longitude != nil {
				stop.Longitude = *patch.Longitude
			}
			if patch.RapidStopID != nil {
				stop.RapidStopID = *patch.RapidStopID
			}
			if patch.MRTStopID != nil {
				stop.MRTStopID = *patch.MRTStopID
			}

		case ChangeDelete:
			i, found := index[c.Delete.StopID]
			if !found {
				return nil, Invariant("apply-changes", "delete references unknown stop %d", c.Delete.StopID)
			}
			out = append(out[:i], out[i+1:]...)
			index = map[int]int{}
			for j, s := range out {
				index[s.ID] = j
			}

		default:
			return nil, fmt.Errorf("unknown change type %q", c.Type)
		}
	}

	return out, nil
}
