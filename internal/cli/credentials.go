package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"resumeforge/internal/config"
	"resumeforge/internal/types"
	"resumeforge/internal/workflow"
)

// credentials is what signin leaves on disk for later commands
type credentials struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func tokenFilePath(cfg *config.Config) (string, error) {
	if cfg.Client.TokenFile != "" {
		return cfg.Client.TokenFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory for the token file: %w", err)
	}
	return filepath.Join(home, ".resumeforge", "token.json"), nil
}

func saveCredentials(cfg *config.Config, resp types.AuthResponse) (string, error) {
	path, err := tokenFilePath(cfg)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(credentials{UserID: resp.UserID, Username: resp.Username, Token: resp.Token}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("cannot create token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("cannot write token file: %w", err)
	}
	return path, nil
}

// loadIdentity returns the signed-in identity. Without a token file the
// error wraps workflow.ErrUnauthorized.
func loadIdentity(cfg *config.Config) (workflow.Identity, error) {
	path, err := tokenFilePath(cfg)
	if err != nil {
		return workflow.Identity{}, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return workflow.Identity{}, fmt.Errorf("%w: run 'resumeforge signin' first", workflow.ErrUnauthorized)
	}
	if err != nil {
		return workflow.Identity{}, fmt.Errorf("cannot read token file: %w", err)
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return workflow.Identity{}, fmt.Errorf("token file %s is corrupt: %w", path, err)
	}
	if creds.Token == "" {
		return workflow.Identity{}, fmt.Errorf("%w: token file has no token", workflow.ErrUnauthorized)
	}
	return workflow.Identity{UserID: creds.UserID, Username: creds.Username, Token: creds.Token}, nil
}

func removeCredentials(cfg *config.Config) (bool, error) {
	path, err := tokenFilePath(cfg)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
