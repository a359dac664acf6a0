package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NARR_API_URL", "")
	t.Setenv("NARR_TOKEN", "")
	t.Setenv("NARR_DEBUG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if cfg.APIURL != "http://localhost:8081" || cfg.LinesPerPage != 20 || cfg.CharsPerLine != 50 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.SentenceFallback != 2*time.Second {
		t.Errorf("fallback = %v, want 2s", cfg.SentenceFallback)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("NARR_API_URL", "")
	t.Setenv("NARR_TOKEN", "")
	t.Setenv("NARR_DEBUG", "")

	content := `api_url: https://narr.example.com
lines_per_page: 10
chars_per_line: 0
sentence_fallback: 1500ms
debug: true
`
	if err := os.MkdirAll(filepath.Join(dir, "narr"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://narr.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.LinesPerPage != 10 {
		t.Errorf("LinesPerPage = %d", cfg.LinesPerPage)
	}
	if cfg.CharsPerLine != 50 {
		t.Errorf("CharsPerLine = %d, want default for zero", cfg.CharsPerLine)
	}
	if cfg.SentenceFallback != 1500*time.Millisecond {
		t.Errorf("SentenceFallback = %v", cfg.SentenceFallback)
	}
	if !cfg.Debug {
		t.Error("Debug = false")
	}

	layout := cfg.Layout()
	if layout.MaxLinesPerPage != 10 || layout.MaxCharsPerLine != 50 {
		t.Errorf("Layout = %+v", layout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := Default()
	cfg.APIURL = "http://file"
	cfg.Token = "file-token"
	if err := cfg.Save(Path()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("NARR_API_URL", "http://env")
	t.Setenv("NARR_TOKEN", "")
	t.Setenv("NARR_DEBUG", "1")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.APIURL != "http://env" {
		t.Errorf("APIURL = %q, want env value", got.APIURL)
	}
	if got.Token != "file-token" {
		t.Errorf("Token = %q, want file value", got.Token)
	}
	if !got.Debug {
		t.Error("Debug not set from env")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("NARR_DEBUG", "")

	if err := os.MkdirAll(filepath.Join(dir, "narr"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(Path(), []byte("lines_per_page: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}

	os.Remove(Path())
	t.Setenv("NARR_DEBUG", "maybe")
	if _, err := Load(); err == nil {
		t.Error("expected error for bad NARR_DEBUG")
	}
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	if got := Dir(); got != filepath.Join("/tmp/cfg", "narr") {
		t.Errorf("Dir = %q", got)
	}
}
