package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/julianstephens/daytrack/internal/errors"
)

// Container layout: magic | salt | nonce | AES-256-GCM ciphertext and tag
const (
	Magic            = "YDT1"
	keySize          = 32
	saltSize         = 16
	nonceSize        = 12
	pbkdf2Iterations = 120000

	headerSize = len(Magic) + saltSize + nonceSize
)

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// IsEncrypted reports whether data starts with the container magic
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Magic))
}

// Encrypt seals a snapshot under a key derived from passphrase
func Encrypt(plain []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	gcm, err := newGCM(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerSize+len(plain)+gcm.Overhead())
	out = append(out, Magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plain, nil), nil
}

// Decrypt opens a container produced by Encrypt. A bad header, a truncated
// payload or a wrong passphrase all yield ErrCorruptSnapshot.
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	if !IsEncrypted(data) {
		return nil, fmt.Errorf("invalid snapshot header: %w", errors.ErrCorruptSnapshot)
	}
	if len(data) < headerSize+16 {
		return nil, fmt.Errorf("encrypted snapshot too short: %w", errors.ErrCorruptSnapshot)
	}

	salt := data[len(Magic) : len(Magic)+saltSize]
	nonce := data[len(Magic)+saltSize : headerSize]

	gcm, err := newGCM(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, nonce, data[headerSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed, wrong passphrase or damaged file: %w", errors.ErrCorruptSnapshot)
	}
	return plain, nil
}
