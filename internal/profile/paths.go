package profile

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultUserDir returns the editor user directory to operate on.
// Prefers INHERIT_PROFILE_USER_DIR, then the host's platform default.
func DefaultUserDir() string {
	if dir := os.Getenv("INHERIT_PROFILE_USER_DIR"); dir != "" {
		return dir
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Code", "User")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Code", "User")
	default:
		return filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config")), "Code", "User")
	}
}

// DefaultHostBin returns the host editor binary used for extension
// installs. Prefers INHERIT_PROFILE_CODE_BIN.
func DefaultHostBin() string {
	return getEnvOrDefault("INHERIT_PROFILE_CODE_BIN", "code")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
