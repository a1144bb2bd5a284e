package config

import (
	"os"
	"path/filepath"
	"strings"
)

// BaseDir is where relative runtime paths are anchored: SW_HOME when set,
// otherwise the working directory.
func BaseDir() string {
	if home := strings.TrimSpace(os.Getenv(EnvHome)); home != "" {
		return filepath.Clean(home)
	}
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return "."
}

// ResolveRuntimePath turns a configured directory into an absolute one.
// Empty values use fallback; "~/" expands to the user's home.
func ResolveRuntimePath(raw, fallback string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallback)
	}
	switch {
	case target == "":
		return BaseDir()
	case strings.HasPrefix(target, "~/"):
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return filepath.Join(BaseDir(), target[2:])
		}
		return filepath.Join(home, target[2:])
	case filepath.IsAbs(target):
		return filepath.Clean(target)
	}
	return filepath.Join(BaseDir(), target)
}
