package filestore

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognisync/cognisync-api/internal/cryptox"
	"github.com/cognisync/cognisync-api/internal/domain"
)

// Local stores blobs on the filesystem under root/{userID}/{name}. When a
// cipher is supplied, blobs are encrypted at rest and decrypted on retrieve.
type Local struct {
	root   string
	cipher *cryptox.FieldCipher
}

func NewLocal(root string, cipher *cryptox.FieldCipher) *Local {
	return &Local{root: root, cipher: cipher}
}

func (l *Local) Save(_ context.Context, userID, name string, data []byte) (string, error) {
	userDir := filepath.Join(l.root, userID)
	if err := os.MkdirAll(userDir, 0o700); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	path, err := l.resolve(userDir, SanitizeFileName(name))
	if err != nil {
		return "", err
	}

	if l.cipher != nil {
		data, err = l.cipher.EncryptBytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return path, nil
}

func (l *Local) Retrieve(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, domain.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if l.cipher != nil {
		return l.cipher.DecryptBytes(data)
	}
	return data, nil
}

func (l *Local) Remove(_ context.Context, path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}

// SecureRemove overwrites the file with random bytes three times before
// unlinking, following the original wipe procedure for PHI files.
func (l *Local) SecureRemove(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	noise := make([]byte, info.Size())
	for i := 0; i < 3; i++ {
		if _, err := rand.Read(noise); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		f, err := os.OpenFile(path, os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		if _, err := f.Write(noise); err != nil {
			f.Close()
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		f.Close()
	}

	return l.Remove(ctx, path)
}

// resolve joins name onto dir and rejects any result that escapes dir.
func (l *Local) resolve(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if !strings.HasPrefix(absPath, absDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: path escapes user directory", domain.ErrStorage)
	}
	return path, nil
}
