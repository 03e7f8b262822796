package credential

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/chacha20poly1305"
)

const credentialFileVersionV1 = 1

// FileConfig configures a [FileStore].
type FileConfig struct {
	// Path is the sealed credential file. It survives restarts.
	Path string
	// KeyPath is the sealing key file. It must live in per-session storage
	// (runtime dir) that does not survive a reboot, so a new session forces
	// re-derivation or login.
	KeyPath string
}

// FileStore is the development-mode strategy: the pair is sealed with a
// per-session symmetric key and written to disk. A missing key or any
// decode failure makes the stored pair unreadable; it is then treated as
// absent and proactively removed rather than surfaced as an error.
type FileStore struct {
	path    string
	keyPath string
	logger  logrus.FieldLogger

	mu sync.Mutex
}

// NewFileStore creates the development-mode store. Both paths are required.
func NewFileStore(cfg FileConfig, logger logrus.FieldLogger) (*FileStore, error) {
	if cfg.Path == "" || cfg.KeyPath == "" {
		return nil, errors.New("file store requires Path and KeyPath")
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &FileStore{
		path:    cfg.Path,
		keyPath: cfg.KeyPath,
		logger:  logger.WithField("component", "credential.file"),
	}, nil
}

// Kind reports the strategy name.
func (s *FileStore) Kind() string { return "file" }

// Get returns the stored pair, or (nil, nil) when the file is missing, the
// session key is gone, or the payload cannot be opened. Unreadable entries
// are removed before returning.
func (s *FileStore) Get(ctx context.Context) (*Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.dropCorrupted("unreadable credential file")
		}
		return nil, nil
	}

	key, err := os.ReadFile(s.keyPath)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		// New session: the sealing key did not survive. The sealed pair is
		// unrecoverable, so remove it and force a fresh login.
		s.dropCorrupted("sealing key absent or invalid")
		return nil, nil
	}

	pair, err := openSealedPair(key, data)
	if err != nil {
		s.dropCorrupted(err.Error())
		return nil, nil
	}
	return pair, nil
}

// Set seals and persists the pair, generating the session key on first use.
func (s *FileStore) Set(ctx context.Context, pair *Pair) error {
	if pair == nil {
		return fmt.Errorf("%w: nil pair", ErrStorageFailure)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.ensureKey()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	sealed, err := sealPair(key, pair)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if err := os.WriteFile(s.path, sealed, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return nil
}

// Clear removes the sealed pair. Removing an already-absent file succeeds.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return nil
}

func (s *FileStore) ensureKey() ([]byte, error) {
	key, err := os.ReadFile(s.keyPath)
	if err == nil && len(key) == chacha20poly1305.KeySize {
		return key, nil
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.keyPath), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(s.keyPath, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *FileStore) dropCorrupted(reason string) {
	s.logger.WithField("reason", reason).Warn("clearing unreadable stored credential")
	_ = os.Remove(s.path)
}

func sealPair(key []byte, pair *Pair) ([]byte, error) {
	plaintext, err := json.Marshal(pair)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, credentialFileVersionV1)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

func openSealedPair(key, data []byte) (*Pair, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	if len(data) < 1+aead.NonceSize() {
		return nil, errors.New("sealed credential truncated")
	}
	if data[0] != credentialFileVersionV1 {
		return nil, errors.New("unknown sealed credential version")
	}

	nonce := data[1 : 1+aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, data[1+aead.NonceSize():], nil)
	if err != nil {
		return nil, errors.New("sealed credential failed authentication")
	}

	pair := &Pair{}
	if err := json.Unmarshal(plaintext, pair); err != nil {
		return nil, errors.New("sealed credential payload invalid")
	}
	return pair, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
