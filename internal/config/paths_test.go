package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()

	if paths.ConfigDir == "" {
		t.Error("ConfigDir is empty")
	}
	if paths.DataDir == "" {
		t.Error("DataDir is empty")
	}

	if !filepath.IsAbs(paths.ConfigDir) {
		t.Errorf("ConfigDir should be absolute: %s", paths.ConfigDir)
	}
	if !filepath.IsAbs(paths.DataDir) {
		t.Errorf("DataDir should be absolute: %s", paths.DataDir)
	}
}

func TestDefaultPaths_XDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_DATA_HOME", "/custom/data")

	paths := DefaultPaths()

	if !strings.HasPrefix(paths.ConfigDir, "/custom/config") {
		t.Errorf("ConfigDir should respect XDG_CONFIG_HOME: %s", paths.ConfigDir)
	}
	if !strings.HasPrefix(paths.DataDir, "/custom/data") {
		t.Errorf("DataDir should respect XDG_DATA_HOME: %s", paths.DataDir)
	}
}

func TestPaths_Files(t *testing.T) {
	paths := &Paths{ConfigDir: "/cfg", DataDir: "/data"}

	if got := paths.ConfigFile(); got != filepath.Join("/cfg", "config.yaml") {
		t.Errorf("ConfigFile = %s", got)
	}
	if got := paths.LogFile(); got != filepath.Join("/data", "logs", "toolwrap.log") {
		t.Errorf("LogFile = %s", got)
	}
}

func TestPaths_EnsureDirectories(t *testing.T) {
	root := t.TempDir()
	paths := &Paths{
		ConfigDir: filepath.Join(root, "cfg"),
		DataDir:   filepath.Join(root, "data"),
	}

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{paths.ConfigDir, paths.DataDir, paths.LogDir()} {
		if !dirExists(dir) {
			t.Errorf("expected %s to exist", dir)
		}
	}
}
