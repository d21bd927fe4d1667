// Package gatedconfig loads and watches the 5 on-disk JSON files that
// gate which protocols, currencies, and networks the gateway exposes.
// Unlike every other upstream, this "source" is local disk: a file
// watcher, not a timer, is the primary trigger, with a timer as a
// backstop against missed or coalesced fsnotify events.
package gatedconfig

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/nolus-protocol/agg-gateway/internal/apperr"
	"github.com/nolus-protocol/agg-gateway/internal/derive"
)

const (
	currencyDisplayFile = "currency-display.json"
	networkConfigFile   = "network-config.json"
	leaseRulesFile      = "lease-rules.json"
	swapSettingsFile    = "swap-settings.json"
	uiSettingsFile      = "ui-settings.json"
)

// Store reads the gated config directory into a derive.GatedConfigBundle
// and watches it for changes.
type Store struct {
	dir string
	log *logrus.Entry
}

// New builds a store rooted at dir. dir is not created or validated
// here; a missing dir loads as an empty bundle (every file missing), and
// Watch returns an error for it.
func New(dir string) *Store {
	return &Store{dir: dir, log: logrus.WithField("component", "gatedconfig")}
}

// Load reads all 5 files, treating a missing file as "no entries" for
// that config rather than an error — only a malformed (present but
// unparseable) file is a hard failure.
func (s *Store) Load() (derive.GatedConfigBundle, error) {
	var bundle derive.GatedConfigBundle

	if err := readJSONOrDefault(filepath.Join(s.dir, currencyDisplayFile), &bundle.CurrencyDisplay); err != nil {
		return bundle, err
	}
	if err := readJSONOrDefault(filepath.Join(s.dir, networkConfigFile), &bundle.NetworkConfig); err != nil {
		return bundle, err
	}
	if err := readJSONOrDefault(filepath.Join(s.dir, leaseRulesFile), &bundle.LeaseRules); err != nil {
		return bundle, err
	}
	if err := readJSONOrDefault(filepath.Join(s.dir, swapSettingsFile), &bundle.SwapSettings); err != nil {
		return bundle, err
	}
	if err := readJSONOrDefault(filepath.Join(s.dir, uiSettingsFile), &bundle.UISettings); err != nil {
		return bundle, err
	}

	return bundle, nil
}

func readJSONOrDefault(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Internal("failed to read gated config file "+filepath.Base(path), err)
	}
	// Unknown fields are ignored by default with encoding/json.
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Internal("failed to parse gated config file "+filepath.Base(path), err)
	}
	return nil
}

// Watch starts an fsnotify watcher on the config directory and sends a
// signal on changed whenever any of the 5 files is written or renamed
// into place (the atomic-write convention below always ends in a
// rename). It runs until stop is closed.
func (s *Store) Watch(stop <-chan struct{}, changed chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperr.Internal("failed to start config watcher", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return apperr.Internal("failed to watch config directory", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isRelevant(event) {
					continue
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.WithError(err).Warn("config watcher error")
			}
		}
	}()
	return nil
}

func isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	switch filepath.Base(event.Name) {
	case currencyDisplayFile, networkConfigFile, leaseRulesFile, swapSettingsFile, uiSettingsFile:
		return true
	}
	return false
}

// WriteAtomic serializes value as indented JSON and writes it to
// filename within the store's directory via a temp file followed by a
// rename, so a concurrent Load (or fsnotify-triggered reload) never
// observes a partially written file.
func (s *Store) WriteAtomic(filename string, value any) error {
	path := filepath.Join(s.dir, filename)
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return apperr.Internal("failed to encode gated config", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Internal("failed to write gated config temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperr.Internal("failed to finalize gated config write", err)
	}
	return nil
}

// CurrencyDisplayFile, NetworkConfigFile, LeaseRulesFile, SwapSettingsFile,
// and UISettingsFile name the 5 files WriteAtomic expects, for callers
// building an admin-facing config editor.
const (
	CurrencyDisplayFile = currencyDisplayFile
	NetworkConfigFile   = networkConfigFile
	LeaseRulesFile      = leaseRulesFile
	SwapSettingsFile    = swapSettingsFile
	UISettingsFile      = uiSettingsFile
)
