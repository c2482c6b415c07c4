package google

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// loadToken reads a persisted oauth2 token from path.
func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return tok, nil
}

// persist writes the token atomically: it lands under a temporary name in
// the same directory and is renamed into place, so an interrupt never
// leaves a corrupt or partially written token file.
func (m *Manager) persist(tok *oauth2.Token) error {
	if err := os.MkdirAll(m.ConfigDir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(m.ConfigDir, tokenFile+".*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod token file: %w", err)
	}
	if err := json.NewEncoder(tmp).Encode(tok); err != nil {
		tmp.Close()
		return fmt.Errorf("encode token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.tokenPath()); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}
