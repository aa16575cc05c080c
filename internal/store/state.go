package store

import (
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"RentScope/internal/model"
)

// State is the persisted record of dataset refreshes.
type State struct {
	Current         *model.DatasetInfo `json:"current,omitempty"`
	LastError       string             `json:"last_error,omitempty"`
	LastAttemptAt   time.Time          `json:"last_attempt_at"`
	RefreshCount    int                `json:"refresh_count"`
	FailedRefreshes int                `json:"failed_refreshes"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// LoadState reads the state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the state to a JSON file, creating its directory.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
