package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string
	ProfileFile string
	QueueFile   string
	Output      string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   getEnvOrDefault("TB_SERVER", "http://localhost:8080"),
		ProfileFile: getEnvOrDefault("TB_PROFILE", defaultPath("pseudo")),
		QueueFile:   getEnvOrDefault("TB_QUEUE", defaultPath("queue.jsonl")),
		Output:      "text",
	}
}

// LoadPseudo returns the remembered pseudo, or "" if none is saved
func (c *Config) LoadPseudo() (string, error) {
	data, err := os.ReadFile(c.ProfileFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SavePseudo remembers pseudo for later commands
func (c *Config) SavePseudo(pseudo string) error {
	if err := os.MkdirAll(filepath.Dir(c.ProfileFile), 0700); err != nil {
		return err
	}
	return os.WriteFile(c.ProfileFile, []byte(pseudo), 0600)
}

// ClearPseudo forgets the remembered pseudo
func (c *Config) ClearPseudo() error {
	err := os.Remove(c.ProfileFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tbctl", name)
	}
	return filepath.Join(home, ".tbctl", name)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
