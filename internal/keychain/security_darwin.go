// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build darwin

package keychain

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// securityBackend implements keychain operations using macOS security command.
// Each key is stored as a generic password whose service is the key and whose
// account is ServiceName.
type securityBackend struct{}

// newSecurityBackend creates a new macOS security command backend.
func newSecurityBackend() (*securityBackend, error) {
	if _, err := exec.LookPath("security"); err != nil {
		return nil, fmt.Errorf("security command not found: %w", err)
	}
	return &securityBackend{}, nil
}

func (s *securityBackend) run(args ...string) (string, string, error) {
	cmd := exec.Command("security", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Set stores a key-value pair in macOS keychain.
func (s *securityBackend) Set(key, value string) error {
	// -U updates an existing item in place
	_, stderr, err := s.run("add-generic-password", "-a", ServiceName, "-s", key, "-w", value, "-U")
	if err != nil {
		return fmt.Errorf("failed to store %q in keychain: %s: %w", key, strings.TrimSpace(stderr), err)
	}
	return nil
}

// Get retrieves a value from macOS keychain.
func (s *securityBackend) Get(key string) (string, error) {
	stdout, stderr, err := s.run("find-generic-password", "-a", ServiceName, "-s", key, "-w")
	if err != nil {
		if strings.Contains(stderr, "could not be found") {
			return "", errSecurityNotFound
		}
		return "", fmt.Errorf("failed to retrieve %q from keychain: %s: %w", key, strings.TrimSpace(stderr), err)
	}
	return strings.TrimSpace(stdout), nil
}

// Delete removes a key from macOS keychain.
func (s *securityBackend) Delete(key string) error {
	_, stderr, err := s.run("delete-generic-password", "-a", ServiceName, "-s", key)
	if err != nil {
		if strings.Contains(stderr, "could not be found") {
			return nil
		}
		return fmt.Errorf("failed to delete %q from keychain: %s: %w", key, strings.TrimSpace(stderr), err)
	}
	return nil
}
