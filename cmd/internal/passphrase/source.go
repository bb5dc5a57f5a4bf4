// Package passphrase resolves the keystore passphrase for CLI commands.
package passphrase

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

var (
	errEmpty    = errors.New("keystore passphrase cannot be empty")
	errMismatch = errors.New("keystore passphrases do not match")
)

// Source resolves the passphrase from, in order: the environment variable
// envVar, the file named by fileVar, or a terminal prompt. The first
// successful value is cached for the rest of the process.
type Source struct {
	envVar  string
	fileVar string
	prompt  func(label string) (string, error)

	mu    sync.Mutex
	value string
}

// NewSource returns a source reading envVar, then the file named by fileVar.
// Either name may be empty.
func NewSource(envVar, fileVar string) *Source {
	return &Source{
		envVar:  strings.TrimSpace(envVar),
		fileVar: strings.TrimSpace(fileVar),
		prompt:  promptTerminal,
	}
}

// Get returns the passphrase for an existing keystore.
func (s *Source) Get() (string, error) {
	return s.resolve(false)
}

// GetNew returns the passphrase for a keystore about to be written. A
// prompted passphrase has to be typed twice.
func (s *Source) GetNew() (string, error) {
	return s.resolve(true)
}

func (s *Source) resolve(confirm bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value != "" {
		return s.value, nil
	}

	value, ok, err := s.fromEnvironment()
	if err != nil {
		return "", err
	}
	if !ok {
		if value, err = s.fromPrompt(confirm); err != nil {
			return "", err
		}
	}
	s.value = value
	return value, nil
}

func (s *Source) fromEnvironment() (string, bool, error) {
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", false, fmt.Errorf("%s is set but empty", s.envVar)
			}
			return value, true, nil
		}
	}
	if s.fileVar != "" {
		if path := strings.TrimSpace(os.Getenv(s.fileVar)); path != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				return "", false, fmt.Errorf("read %s: %w", s.fileVar, err)
			}
			value := strings.TrimRight(string(raw), "\r\n")
			if strings.TrimSpace(value) == "" {
				return "", false, fmt.Errorf("passphrase file %s is empty", path)
			}
			return value, true, nil
		}
	}
	return "", false, nil
}

func (s *Source) fromPrompt(confirm bool) (string, error) {
	value, err := s.prompt("Enter keystore passphrase: ")
	if err != nil {
		return "", s.explain(err)
	}
	if strings.TrimSpace(value) == "" {
		return "", errEmpty
	}
	if confirm {
		again, err := s.prompt("Repeat keystore passphrase: ")
		if err != nil {
			return "", s.explain(err)
		}
		if again != value {
			return "", errMismatch
		}
	}
	return value, nil
}

func (s *Source) explain(err error) error {
	if !errors.Is(err, errNoTerminal) {
		return err
	}
	switch {
	case s.envVar != "" && s.fileVar != "":
		return fmt.Errorf("keystore passphrase required; set %s or %s, or run interactively", s.envVar, s.fileVar)
	case s.envVar != "":
		return fmt.Errorf("keystore passphrase required; set %s or run interactively", s.envVar)
	default:
		return err
	}
}

var errNoTerminal = errors.New("keystore passphrase required and no terminal available")

func promptTerminal(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}
	fmt.Fprint(os.Stderr, label)
	bytes, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(bytes), nil
}
