// Package secretbox implements the AES-256-GCM envelope used to encrypt
// opaque persisted secrets, and the key-file load path documented in
// spec.md §6/§9: environment override (hashed to 32 bytes) takes
// precedence over an on-disk key file (created 0600 on first boot);
// if neither is available the process aborts. The raw key is never
// written to disk when it comes from the environment.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const envelopeVersion = 1

// Box wraps a loaded 32-byte key and encrypts/decrypts envelopes.
type Box struct {
	key [32]byte
}

// Load resolves the key by precedence: envOverride (any length, hashed
// to 32 bytes with SHA-256) first, else the 0600 key file at keyPath,
// creating it with a fresh random key if absent.
func Load(envOverride string, keyPath string) (*Box, error) {
	if envOverride != "" {
		return &Box{key: sha256.Sum256([]byte(envOverride))}, nil
	}

	raw, err := os.ReadFile(keyPath)
	if err == nil {
		if len(raw) != 32 {
			return nil, fmt.Errorf("secretbox: key file %s is not 32 bytes", keyPath)
		}
		var b Box
		copy(b.key[:], raw)
		return &b, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("secretbox: reading key file: %w", err)
	}

	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("secretbox: generating key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return nil, fmt.Errorf("secretbox: creating data dir: %w", err)
	}
	if err := os.WriteFile(keyPath, key[:], 0600); err != nil {
		return nil, fmt.Errorf("secretbox: writing key file: %w", err)
	}
	return &Box{key: key}, nil
}

type envelope struct {
	V    int    `json:"v"`
	Alg  string `json:"alg"`
	IV   string `json:"iv"`
	Tag  string `json:"tag"`
	Data string `json:"data"`
}

// Seal encrypts plaintext into the "v1:<base64(json)>" envelope format.
func (b *Box) Seal(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(b.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	tagLen := gcm.Overhead()
	ciphertext := sealed[:len(sealed)-tagLen]
	tag := sealed[len(sealed)-tagLen:]

	env := envelope{
		V:    envelopeVersion,
		Alg:  "AES-256-GCM",
		IV:   base64.StdEncoding.EncodeToString(nonce),
		Tag:  base64.StdEncoding.EncodeToString(tag),
		Data: base64.StdEncoding.EncodeToString(ciphertext),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return "v1:" + base64.StdEncoding.EncodeToString(raw), nil
}

// Open decrypts a string previously produced by Seal.
func (b *Box) Open(sealed string) ([]byte, error) {
	const prefix = "v1:"
	if len(sealed) < len(prefix) || sealed[:len(prefix)] != prefix {
		return nil, errors.New("secretbox: unrecognized envelope format")
	}
	raw, err := base64.StdEncoding.DecodeString(sealed[len(prefix):])
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.V != envelopeVersion {
		return nil, fmt.Errorf("secretbox: unsupported envelope version %d", env.V)
	}

	nonce, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, err
	}
	tag, err := base64.StdEncoding.DecodeString(env.Tag)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(b.key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return gcm.Open(nil, nonce, append(data, tag...), nil)
}
