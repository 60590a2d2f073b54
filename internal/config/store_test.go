package config

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	return NewStore(&cfg, path), path
}

func TestStore_SetFieldPersists(t *testing.T) {
	store, path := newTestStore(t)

	if err := store.SetPersona("A curious cat."); err != nil {
		t.Fatalf("SetPersona failed: %v", err)
	}
	if err := store.SetResponseFrequency(0.9); err != nil {
		t.Fatalf("SetResponseFrequency failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Persona != "A curious cat." {
		t.Errorf("persona not persisted: %q", loaded.Persona)
	}
	if loaded.ResponseFrequency != 0.9 {
		t.Errorf("frequency not persisted: %v", loaded.ResponseFrequency)
	}
}

func TestStore_TrimsTextFields(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.SetPersona("  Explorer  "); err != nil {
		t.Fatal(err)
	}
	if got := store.Config().Persona; got != "Explorer" {
		t.Errorf("expected trimmed persona, got %q", got)
	}

	if err := store.SetModel(" openai/gpt-4o "); err != nil {
		t.Fatal(err)
	}
	if got := store.Config().Model; got != "openai/gpt-4o" {
		t.Errorf("expected trimmed model, got %q", got)
	}
}

func TestStore_ClampsFrequency(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.SetResponseFrequency(1.7); err != nil {
		t.Fatal(err)
	}
	if got := store.Config().ResponseFrequency; got != 1 {
		t.Errorf("expected clamp to 1, got %v", got)
	}

	if err := store.SetResponseFrequency(-0.2); err != nil {
		t.Fatal(err)
	}
	if got := store.Config().ResponseFrequency; got != 0 {
		t.Errorf("expected clamp to 0, got %v", got)
	}
}

func TestStore_ConfigReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)

	cfg := store.Config()
	cfg.Persona = "mutated"

	if store.Config().Persona == "mutated" {
		t.Error("Config() must return a copy")
	}
}
