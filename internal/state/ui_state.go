package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/dealflow/internal/logger"
)

const fileName = "ui-state.json"

// UIState holds UI preferences that carry across runs.
type UIState struct {
	LastFlow    string   `json:"last_flow,omitempty"`
	Preview     bool     `json:"preview"`
	LastRequest string   `json:"last_request,omitempty"`
	Recent      []string `json:"recent,omitempty"`
}

const maxRecent = 10

// DefaultUIState returns the default UI state.
func DefaultUIState() *UIState {
	return &UIState{Preview: true}
}

// RememberRequest records id as the most recently touched request.
func (s *UIState) RememberRequest(id string) {
	s.LastRequest = id
	recent := []string{id}
	for _, r := range s.Recent {
		if r != id && len(recent) < maxRecent {
			recent = append(recent, r)
		}
	}
	s.Recent = recent
}

// Load reads the UI state from dataDir. Missing or unreadable state yields
// the defaults.
func Load(dataDir string) *UIState {
	path := filepath.Join(dataDir, fileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to read UI state file: %v", err)
		}
		return DefaultUIState()
	}

	st := DefaultUIState()
	if err := json.Unmarshal(data, st); err != nil {
		logger.Warn("Failed to parse UI state JSON: %v", err)
		return DefaultUIState()
	}
	return st
}

// Save writes the UI state to dataDir, creating it if needed.
func Save(dataDir string, st *UIState) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, fileName)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling UI state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing UI state file: %w", err)
	}

	logger.Debug("UI state saved to %s", path)
	return nil
}
