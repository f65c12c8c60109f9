package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Fatalf("unexpected default addr %q", cfg.Addr())
	}
	if cfg.Database.Path != "inboxpilot.db" {
		t.Fatalf("unexpected default db path %q", cfg.Database.Path)
	}
	if cfg.Resend.From == "" {
		t.Fatal("expected a default digest sender")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `server:
  host: 0.0.0.0
  port: "9090"
openai:
  model: gpt-4o
digest:
  max_items: 5
  default_urgency: medium
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("unexpected model %q", cfg.OpenAI.Model)
	}
	if cfg.Digest.MaxItems != 5 || cfg.Digest.DefaultUrgency != "medium" {
		t.Fatalf("unexpected digest config %+v", cfg.Digest)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("expected env to win, got port %q", cfg.Server.Port)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Fatalf("expected env api key, got %q", cfg.OpenAI.APIKey)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected defaults, got port %q", cfg.Server.Port)
	}
}
