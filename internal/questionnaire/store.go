package questionnaire

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oukeidos/skinscan/internal/files"
	"github.com/oukeidos/skinscan/internal/recovery"
)

const fileSuffix = ".questionnaire.json"

// Save writes r to dir as <questionnaire_id>.questionnaire.json.
func Save(dir string, r Result) (string, error) {
	if err := recovery.ValidateSessionID(r.QuestionnaireID); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create questionnaire directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal questionnaire: %w", err)
	}
	p := filepath.Join(dir, r.QuestionnaireID+fileSuffix)
	if err := files.AtomicWrite(p, data, 0o600); err != nil {
		return "", err
	}
	return p, nil
}

// Load reads a saved questionnaire by ID.
func Load(dir, id string) (*Result, error) {
	if err := recovery.ValidateSessionID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, id+fileSuffix))
	if err != nil {
		return nil, err
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse questionnaire %s: %w", id, err)
	}
	return &r, nil
}
