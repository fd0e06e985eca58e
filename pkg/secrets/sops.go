package secrets

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/getsops/sops/v3/decrypt"
	"gopkg.in/yaml.v3"
)

// SOPSStore resolves secrets from a SOPS-encrypted YAML or JSON file.
// The file is decrypted once, on first access, and held in memory.
type SOPSStore struct {
	path string

	once    sync.Once
	values  map[string]string
	loadErr error
}

func NewSOPSStore(path string) *SOPSStore {
	return &SOPSStore{path: path}
}

func (s *SOPSStore) Get(name string) (string, error) {
	s.once.Do(s.load)
	if s.loadErr != nil {
		return "", s.loadErr
	}

	value, ok := s.values[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return value, nil
}

func (s *SOPSStore) load() {
	format := "yaml"
	if strings.EqualFold(filepath.Ext(s.path), ".json") {
		format = "json"
	}

	plaintext, err := decrypt.File(s.path, format)
	if err != nil {
		s.loadErr = fmt.Errorf("decrypt %s: %w", s.path, err)
		return
	}

	var raw map[string]any
	if format == "json" {
		err = json.Unmarshal(plaintext, &raw)
	} else {
		err = yaml.Unmarshal(plaintext, &raw)
	}
	if err != nil {
		s.loadErr = fmt.Errorf("parse %s: %w", s.path, err)
		return
	}

	s.values = flatten("", raw)
}

// flatten turns nested mappings into dotted keys (api.key, slack.webhook).
func flatten(prefix string, raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			for k, nested := range flatten(full, v) {
				out[k] = nested
			}
		case string:
			out[full] = v
		default:
			out[full] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
