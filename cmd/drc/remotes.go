package main

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// Named remotes let drc switch between servers without re-entering URL,
// token, and NATS flags. They live in ~/.local/state/dynrec/remotes.toml.

// Remote is one saved server profile.
type Remote struct {
	URL     string `toml:"url"`
	Token   string `toml:"token,omitempty"`
	NATSURL string `toml:"nats_url,omitempty"`
}

// remotesFile is the on-disk shape: all profiles plus the active one's name.
type remotesFile struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

func remotesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "dynrec")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "remotes.toml"), nil
}

// readRemotes loads the remotes file. A missing file is an empty config,
// not an error.
func readRemotes() (remotesFile, error) {
	path, err := remotesPath()
	if err != nil {
		return remotesFile{}, err
	}
	var cfg remotesFile
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return remotesFile{Remotes: map[string]Remote{}}, nil
		}
		return remotesFile{}, err
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

// writeRemotes persists the config with owner-only permissions; the file
// can hold bearer tokens.
func writeRemotes(cfg remotesFile) error {
	path, err := remotesPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// activeRemote resolves the profile marked active, reading the file at most
// once per process. Returns the zero Remote when none is configured.
var activeRemote = sync.OnceValue(func() Remote {
	cfg, err := readRemotes()
	if err != nil || cfg.Active == "" {
		return Remote{}
	}
	return cfg.Remotes[cfg.Active]
})
