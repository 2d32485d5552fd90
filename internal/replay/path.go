package replay

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// RecordingExtensions lists the file extensions treated as recordings.
var RecordingExtensions = []string{".json", ".aoe2record.json"}

// DefaultRecordingsDir returns the folder the game saves recordings to on the
// current platform.
func DefaultRecordingsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		// C:\Users\{username}\Games\Age of Empires 2 DE
		return filepath.Join(home, "Games", "Age of Empires 2 DE"), nil
	case "linux":
		// Steam Proton prefix
		return filepath.Join(home, ".steam", "steam", "steamapps", "compatdata", "813780",
			"pfx", "drive_c", "users", "steamuser", "Games", "Age of Empires 2 DE"), nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// IsRecording reports whether path has a recording extension.
func IsRecording(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range RecordingExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ListRecordings returns the recordings directly inside dir, sorted by name.
func ListRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read recordings directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsRecording(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
