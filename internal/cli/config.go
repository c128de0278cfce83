package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcoot/signedchess/internal/signature"
)

// ErrKeyExists is returned when keygen would overwrite a stored key pair
var ErrKeyExists = errors.New("key already exists")

// Config holds CLI configuration
type Config struct {
	ServerURL string
	KeyDir    string
	KeyName   string
	Output    string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("CHESSCTL_SERVER", "http://localhost:3001"),
		KeyDir:    getEnvOrDefault("CHESSCTL_KEY_DIR", defaultKeyDir()),
		KeyName:   getEnvOrDefault("CHESSCTL_KEY", "default"),
		Output:    "text",
	}
}

// KeyPath returns the file holding the named key pair
func (c *Config) KeyPath(name string) string {
	return filepath.Join(c.KeyDir, name+".json")
}

// LoadKey reads the named key pair
func (c *Config) LoadKey(name string) (signature.KeyPair, error) {
	var kp signature.KeyPair

	data, err := os.ReadFile(c.KeyPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return kp, fmt.Errorf("no key named %q in %s (run chessctl keygen)", name, c.KeyDir)
		}
		return kp, err
	}

	if err := json.Unmarshal(data, &kp); err != nil {
		return kp, fmt.Errorf("read key %q: %w", name, err)
	}
	if kp.PublicKey == "" || kp.PrivateKey == "" {
		return kp, fmt.Errorf("read key %q: incomplete key pair", name)
	}
	return kp, nil
}

// SaveKey writes the named key pair, refusing to replace one unless overwrite is set
func (c *Config) SaveKey(name string, kp signature.KeyPair, overwrite bool) error {
	path := c.KeyPath(name)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrKeyExists, path)
		}
	}

	if err := os.MkdirAll(c.KeyDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(kp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func defaultKeyDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chessctl"
	}
	return filepath.Join(home, ".chessctl")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
