package keygen

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds an SSH key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the private key in OpenSSH PEM format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// GenerateEd25519KeyPair generates a new ed25519 key pair. The comment is
// embedded in the private key and appended to the public key line.
func GenerateEd25519KeyPair(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	privBlock, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	pubLine := ssh.MarshalAuthorizedKey(sshPub)
	if comment != "" {
		// MarshalAuthorizedKey ends with a newline.
		pubLine = append(pubLine[:len(pubLine)-1], []byte(" "+comment+"\n")...)
	}

	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(privBlock),
		PublicKey:  pubLine,
	}, nil
}

// PublicKeyPath returns the conventional public key path for a private key.
func PublicKeyPath(privatePath string) string {
	return privatePath + ".pub"
}

// EnsureKeyPair returns the key pair stored at privatePath, generating and
// writing a new one if neither file exists. created reports whether a new
// pair was written. A half-present pair is an error rather than being
// silently replaced.
func EnsureKeyPair(privatePath, comment string) (pair *KeyPair, created bool, err error) {
	pubPath := PublicKeyPath(privatePath)

	privData, privErr := os.ReadFile(privatePath) // #nosec G304
	pubData, pubErr := os.ReadFile(pubPath)       // #nosec G304

	switch {
	case privErr == nil && pubErr == nil:
		if _, err := ssh.ParsePrivateKey(privData); err != nil {
			return nil, false, fmt.Errorf("existing private key %s is unreadable: %w", privatePath, err)
		}
		return &KeyPair{PrivateKey: privData, PublicKey: pubData}, false, nil
	case errors.Is(privErr, os.ErrNotExist) && errors.Is(pubErr, os.ErrNotExist):
	case privErr != nil && !errors.Is(privErr, os.ErrNotExist):
		return nil, false, fmt.Errorf("failed to read private key: %w", privErr)
	case pubErr != nil && !errors.Is(pubErr, os.ErrNotExist):
		return nil, false, fmt.Errorf("failed to read public key: %w", pubErr)
	default:
		return nil, false, fmt.Errorf("incomplete key pair at %s: remove it or restore the missing half", privatePath)
	}

	pair, err = GenerateEd25519KeyPair(comment)
	if err != nil {
		return nil, false, err
	}

	if err := os.MkdirAll(filepath.Dir(privatePath), 0o700); err != nil {
		return nil, false, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(privatePath, pair.PrivateKey, 0o600); err != nil {
		return nil, false, fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, pair.PublicKey, 0o644); err != nil { // #nosec G306
		return nil, false, fmt.Errorf("failed to write public key: %w", err)
	}

	return pair, true, nil
}
