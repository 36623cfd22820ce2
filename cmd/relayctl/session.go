package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultSessionFile is where the carrier is kept between invocations.
func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatrelay-session"
	}
	return filepath.Join(home, ".chatrelay", "session")
}

func loadCarrier(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func saveCarrier(path, carrier string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return os.WriteFile(path, []byte(carrier+"\n"), 0o600)
}

func clearCarrier(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
