// Package workdir resolves where pagenotes keeps files on this machine.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Root returns the base directory for all pagenotes files.
// The path is expanded at runtime to resolve to:
//
//	$HOME/Documents/Alkime/PageNotes
func Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "Alkime", "PageNotes"), nil
}

// NotesDir is the default directory of the server's note files.
func NotesDir() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "notes"), nil
}

// ExportPath returns where an exported file of documentID is written.
func ExportPath(documentID, filename string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "exports", filepath.Base(documentID), filepath.Base(filename)), nil
}

// LogPath is the CLI's log file; the TUI owns stdout.
func LogPath() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "pagenotes.log"), nil
}

// Prep ensures the parent directory of path exists.
func Prep(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return nil
}
