package passphrase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func scripted(t *testing.T, answers ...string) func(string) (string, error) {
	t.Helper()
	return func(string) (string, error) {
		if len(answers) == 0 {
			t.Fatalf("unexpected prompt")
		}
		next := answers[0]
		answers = answers[1:]
		return next, nil
	}
}

func TestSourcePrefersEnvironment(t *testing.T) {
	t.Setenv("TEST_PASS", "from-env")
	s := NewSource("TEST_PASS", "TEST_PASS_FILE")
	s.prompt = scripted(t)
	got, err := s.Get()
	if err != nil || got != "from-env" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestSourceRejectsEmptyEnvironment(t *testing.T) {
	t.Setenv("TEST_PASS", "  ")
	s := NewSource("TEST_PASS", "")
	if _, err := s.Get(); err == nil {
		t.Fatalf("expected empty passphrase to fail")
	}
}

func TestSourceReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TEST_PASS_FILE", path)
	s := NewSource("TEST_PASS_UNSET", "TEST_PASS_FILE")
	s.prompt = scripted(t)
	got, err := s.Get()
	if err != nil || got != "from-file" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestSourceConfirmsNewPassphrase(t *testing.T) {
	s := NewSource("", "")
	s.prompt = scripted(t, "secret", "typo")
	if _, err := s.GetNew(); !errors.Is(err, errMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}

	s.prompt = scripted(t, "secret", "secret")
	got, err := s.GetNew()
	if err != nil || got != "secret" {
		t.Fatalf("got %q, %v", got, err)
	}
	// Cached after the first success.
	s.prompt = scripted(t)
	if again, err := s.Get(); err != nil || again != "secret" {
		t.Fatalf("cached value: %q, %v", again, err)
	}
}

func TestSourceExplainsMissingTerminal(t *testing.T) {
	s := NewSource("TEST_PASS_UNSET", "")
	s.prompt = func(string) (string, error) { return "", errNoTerminal }
	_, err := s.Get()
	if err == nil || err.Error() != "keystore passphrase required; set TEST_PASS_UNSET or run interactively" {
		t.Fatalf("unexpected error %v", err)
	}
}
