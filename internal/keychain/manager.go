// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides thread-safe, string-valued persistent storage for clinicare.
// It backs the session store (bearer token and doctor profile) and keeps the reporting
// database DSN, using the OS credential store where one exists.
//
// Backends:
//   - keychain: macOS `security` command first, then the 99designs/keyring native backends
//     (macOS Keychain, Windows Credential Manager, Secret Service, KWallet, pass)
//   - file: keyring's encrypted file backend under the XDG state dir
//   - memory: an in-process ArrayKeyring, used by tests and --storage memory
package keychain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
	"github.com/pterm/pterm"

	"clinicare/cli/internal/logging"
	"clinicare/cli/internal/xdg"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "clinicare"

// Keys used for persisted entries.
const (
	KeyAuthToken  = "auth_token"
	KeyDoctorData = "doctor_data"
	KeyReportDSN  = "report_dsn"
)

// Backend kinds accepted by Open.
const (
	KindKeychain = "keychain"
	KindFile     = "file"
	KindMemory   = "memory"
)

// PassphraseEnv names the variable holding the file backend passphrase.
const PassphraseEnv = "CLINICARE_FILE_PASSPHRASE"

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("keychain: key not found")

// errSecurityNotFound is the macOS security backend's not-found signal.
var errSecurityNotFound = errors.New("security: item could not be found")

// keychainBackend defines the interface for native keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Manager provides thread-safe access to one storage backend.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
	kind    string
	log     *pterm.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for debug traces of store access. Values are never logged.
func WithLogger(l *pterm.Logger) Option { return func(m *Manager) { m.log = l } }

func newManager(kind string, ring keyring.Keyring, backend keychainBackend, opts []Option) *Manager {
	m := &Manager{ring: ring, backend: backend, kind: kind, log: logging.Discard()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open creates a Manager for the given backend kind.
func Open(kind string, opts ...Option) (*Manager, error) {
	switch kind {
	case KindMemory:
		return NewMemory(opts...), nil
	case KindFile:
		ring, err := openFileRing()
		if err != nil {
			return nil, err
		}
		return newManager(KindFile, ring, nil, opts), nil
	case KindKeychain, "":
		// Try native security backend first on macOS
		if runtime.GOOS == "darwin" {
			if backend, err := newSecurityBackend(); err == nil {
				return newManager(KindKeychain, nil, backend, opts), nil
			}
		}
		ring, err := openNativeRing()
		if err != nil {
			return nil, err
		}
		return newManager(KindKeychain, ring, nil, opts), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (use keychain, file, memory or none)", kind)
	}
}

// NewMemory returns a Manager over an in-process keyring.
func NewMemory(opts ...Option) *Manager {
	return newManager(KindMemory, keyring.NewArrayKeyring(nil), nil, opts)
}

// Kind reports which backend the Manager uses.
func (m *Manager) Kind() string { return m.kind }

// openNativeRing opens the OS keyring restricted to platform credential stores.
func openNativeRing() (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// pass requires the 'pass' utility: brew install pass
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowed,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("OS credential store unavailable (try --storage file): %w", err)
	}
	return ring, nil
}

// openFileRing opens the encrypted file backend under the XDG state dir.
func openFileRing() (keyring.Keyring, error) {
	pass := os.Getenv(PassphraseEnv)
	if pass == "" {
		return nil, fmt.Errorf("file storage requires %s to be set", PassphraseEnv)
	}
	dir, err := xdg.StateDir()
	if err != nil {
		return nil, err
	}
	return keyring.Open(keyring.Config{
		ServiceName:      ServiceName,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          filepath.Join(dir, "keyring"),
		FilePasswordFunc: keyring.FixedStringPrompt(pass),
	})
}

// Get returns the stored value for key, or ErrNotFound.
// This method is thread-safe.
func (m *Manager) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, err := m.get(key)
	switch {
	case errors.Is(err, ErrNotFound):
		m.log.Debug("keychain get", m.log.Args("backend", m.kind, "key", key, "found", false))
	case err == nil:
		m.log.Debug("keychain get", m.log.Args("backend", m.kind, "key", key, "bytes", len(v)))
	}
	return v, err
}

func (m *Manager) get(key string) (string, error) {
	if m.backend != nil {
		v, err := m.backend.Get(key)
		if errors.Is(err, errSecurityNotFound) {
			return "", ErrNotFound
		}
		return v, err
	}

	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// Set stores value under key, replacing any previous value.
// This method is thread-safe.
func (m *Manager) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Debug("keychain set", m.log.Args("backend", m.kind, "key", key, "bytes", len(value)))
	if m.backend != nil {
		return m.backend.Set(key, value)
	}
	return m.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
}

// Delete removes key. Deleting a missing key is not an error.
// This method is thread-safe.
func (m *Manager) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Delete(key)
	}
	if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveReportDSN stores the reporting database DSN.
func (m *Manager) SaveReportDSN(dsn string) error { return m.Set(KeyReportDSN, dsn) }

// LoadReportDSN returns the reporting database DSN, or ErrNotFound.
func (m *Manager) LoadReportDSN() (string, error) { return m.Get(KeyReportDSN) }

// ClearAll removes every clinicare entry from the store.
func (m *Manager) ClearAll() error {
	var errs []error
	for _, k := range []string{KeyAuthToken, KeyDoctorData, KeyReportDSN} {
		if err := m.Delete(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
