package wallet

import (
	"os"
	"path/filepath"
	"strings"
)

// HintFile stores the last connected address. It is read for display only;
// nothing trusts it to mean an account is still authorized.
type HintFile struct {
	path string
}

// NewHintFile returns a hint stored at path.
func NewHintFile(path string) *HintFile {
	return &HintFile{path: path}
}

// Save records addr.
func (h *HintFile) Save(addr string) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(h.path, []byte(addr+"\n"), 0o600)
}

// Load returns the recorded address, or "" when there is none.
func (h *HintFile) Load() string {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Clear removes the hint.
func (h *HintFile) Clear() error {
	err := os.Remove(h.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
