package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const deviceFileName = "device.json"

var ErrNoKeys = errors.New("device keys have not been created")

type deviceFile struct {
	DeviceID   string `json:"deviceId"`
	PrivateKey string `json:"privateKey,omitempty"`
}

// Device is the local signing identity: a stable device id and an ed25519 key pair kept in the data dir.
type Device struct {
	path string

	mu   sync.Mutex
	id   string
	priv ed25519.PrivateKey
}

// OpenDevice loads the device file, generating and persisting a new device id on first use.
func OpenDevice(dataDir string) (*Device, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	d := &Device{
		path: filepath.Join(dataDir, deviceFileName),
	}

	data, err := os.ReadFile(d.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		d.id = uuid.NewString()
		if err = d.persist(); err != nil {
			return nil, err
		}
		return d, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read device file: %w", err)
	}

	var stored deviceFile
	if err = json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse device file: %w", err)
	}

	d.id = stored.DeviceID
	if d.id == "" {
		d.id = uuid.NewString()
	}

	if stored.PrivateKey != "" {
		seed, err := base64.StdEncoding.DecodeString(stored.PrivateKey)
		if err != nil || len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("invalid private key in %s", d.path)
		}
		d.priv = ed25519.NewKeyFromSeed(seed)
	}

	return d, nil
}

func (d *Device) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.id
}

func (d *Device) HasKeys() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.priv != nil
}

// CreateKeys replaces the key pair and returns the base64 encoded public key.
func (d *Device) CreateKeys() (string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.priv = priv
	if err = d.persist(); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(pub), nil
}

// Sign returns the base64 encoded signature of challenge.
func (d *Device) Sign(challenge string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.priv == nil {
		return "", ErrNoKeys
	}

	return base64.StdEncoding.EncodeToString(ed25519.Sign(d.priv, []byte(challenge))), nil
}

func (d *Device) persist() error {
	stored := deviceFile{
		DeviceID: d.id,
	}
	if d.priv != nil {
		stored.PrivateKey = base64.StdEncoding.EncodeToString(d.priv.Seed())
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal device file: %w", err)
	}

	if err = os.WriteFile(d.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write device file: %w", err)
	}

	return nil
}
