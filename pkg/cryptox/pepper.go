package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const (
	keyLength  = 32 // Length of the generated hash
	saltLength = 16 // Length of the salt
)

// Params are the tunable Argon2id cost parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams follows the OWASP minimum for Argon2id (19 MiB, t=2, p=1).
var DefaultParams = Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
}

var (
	mu         sync.RWMutex
	params     = DefaultParams
	pepper     string
	pepperFile string
)

// SetParams replaces the parameters used for new hashes. Zero fields keep
// their default.
func SetParams(p Params) {
	if p.Memory == 0 {
		p.Memory = DefaultParams.Memory
	}
	if p.Iterations == 0 {
		p.Iterations = DefaultParams.Iterations
	}
	if p.Parallelism == 0 {
		p.Parallelism = DefaultParams.Parallelism
	}

	mu.Lock()
	params = p
	mu.Unlock()
}

// CurrentParams returns the parameters used for new hashes.
func CurrentParams() Params {
	mu.RLock()
	defer mu.RUnlock()
	return params
}

// SetPepperPath sets the file the pepper is loaded from (or written to on
// first use). The cached pepper is dropped.
func SetPepperPath(file string) {
	mu.Lock()
	pepperFile = file
	pepper = ""
	mu.Unlock()
}

// ReloadPepper re-reads the pepper file, e.g. after a restore.
func ReloadPepper() error {
	mu.Lock()
	defer mu.Unlock()

	p, err := loadOrGeneratePepper(pepperFile)
	if err != nil {
		slog.Error("failed to load or generate pepper", slog.Any("err", err))
		return err
	}
	pepper = p
	return nil
}

func loadPepper() (string, error) {
	mu.RLock()
	p := pepper
	mu.RUnlock()
	if p != "" {
		return p, nil
	}

	mu.Lock()
	defer mu.Unlock()
	if pepper != "" {
		return pepper, nil
	}

	p, err := loadOrGeneratePepper(pepperFile)
	if err != nil {
		return "", fmt.Errorf("load pepper: %w", err)
	}
	pepper = p
	return pepper, nil
}

// loadOrGeneratePepper loads the pepper from file or generates and stores a
// new one. With no file configured the pepper lives only in memory.
func loadOrGeneratePepper(file string) (string, error) {
	if file == "" {
		slog.Warn("no pepper file configured, using an ephemeral pepper")
		return newPepper()
	}

	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return "", err
	}

	b, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		p, err := newPepper()
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(file, []byte(p), 0600); err != nil {
			return "", err
		}
		return p, nil
	}
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", fmt.Errorf("pepper file %s is empty", file)
	}
	return string(b), nil
}

func newPepper() (string, error) {
	b := make([]byte, keyLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
