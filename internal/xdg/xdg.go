// Package xdg resolves XDG Base Directory paths for clinicare.
// Configuration lives under the config dir; the file-backed session store
// keeps its encrypted entries under the state dir.
//
// Missing XDG variables fall back to the conventional locations under $HOME,
// and directories are created with private permissions.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "clinicare"

// ConfigDir returns the XDG config directory for clinicare.
// It falls back to ~/.config/clinicare when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for clinicare.
// It falls back to ~/.local/state/clinicare when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func resolve(env, homeRel string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRel)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
