package repository

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"carenest/internal/patient/model"
	"carenest/pkg/logger"
)

const DefaultMaxUploadBytes = 16 << 20

var (
	ErrExtensionNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge        = errors.New("file too large")
	ErrInvalidFileName     = errors.New("invalid file name")
	ErrInvalidUsername     = errors.New("invalid username")
)

// AllowedExtensions are the document and image types patients may upload.
var AllowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func AllowedExtension(name string) bool {
	return AllowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// UploadRepository stores patient uploads on disk, one directory per user.
type UploadRepository struct {
	Root     string
	MaxBytes int64
}

func NewUploadRepository(root string) *UploadRepository {
	return &UploadRepository{Root: root, MaxBytes: DefaultMaxUploadBytes}
}

// Save writes src under a generated name and returns that name.
func (r *UploadRepository) Save(username, original string, src io.Reader) (string, error) {
	if !AllowedExtension(original) {
		return "", ErrExtensionNotAllowed
	}
	base := sanitize(filepath.Base(original))
	if base == "" || base == "." {
		return "", ErrInvalidFileName
	}

	dir, err := r.userDir(username)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := model.NewID() + "_" + base
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(src, r.MaxBytes+1))
	closeErr := f.Close()
	if err == nil && n > r.MaxBytes {
		err = ErrFileTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}

	logger.Sugar.Infof("Stored upload %s for %s (%d bytes)", name, username, n)
	return name, nil
}

// Path resolves a stored name to its location on disk.
func (r *UploadRepository) Path(username, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidFileName
	}
	dir, err := r.userDir(username)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// userDir maps a username to its own directory under Root. The base64url
// encoding is one-to-one and never yields "." or "..".
func (r *UploadRepository) userDir(username string) (string, error) {
	if username == "" {
		return "", ErrInvalidUsername
	}
	return filepath.Join(r.Root, base64.RawURLEncoding.EncodeToString([]byte(username))), nil
}

func (r *UploadRepository) Remove(username, name string) error {
	path, err := r.Path(username, name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func sanitize(s string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(s, "_"), "_")
}
