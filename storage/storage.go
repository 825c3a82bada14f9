package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"support-bot/config"
)

// Cfg is the process-wide configuration, set once in main before any
// handler runs.
var Cfg *config.Config

var (
	Tickets   *TicketStore
	Blacklist *BlacklistStore
	Profiles  *ProfileStore
)

// Init wires the JSON stores under the configured data directory.
func Init(cfg *config.Config) error {
	dir := cfg.Storage.DataDir
	for _, sub := range []string{"", "profiles", "transcripts"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	Tickets = NewTicketStore(filepath.Join(dir, "TicketData.json"))
	Blacklist = NewBlacklistStore(filepath.Join(dir, "BlacklistedUsers.json"))
	Profiles = NewProfileStore(filepath.Join(dir, "profiles"))
	return nil
}

// TranscriptDir is where rendered archives are written.
func TranscriptDir() string {
	return filepath.Join(Cfg.Storage.DataDir, "transcripts")
}

// writeJSON fully rewrites path via a temp file and rename so a crash
// mid-write never leaves a truncated store.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
