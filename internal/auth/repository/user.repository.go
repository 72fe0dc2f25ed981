package repository

import (
	"context"
	"errors"
	"fmt"
	"os"

	"carenest/internal/auth/model"
	"carenest/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// UserRepository checks credentials and resolves the user's role.
type UserRepository interface {
	Authenticate(ctx context.Context, username, password string) (model.User, error)
}

type userEntry struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

type usersFile struct {
	Users []userEntry `yaml:"users"`
}

// FileUserRepository serves users from a YAML file loaded once at startup.
type FileUserRepository struct {
	users map[string]userEntry
}

var _ UserRepository = (*FileUserRepository)(nil)

// demoUsers mirror the accounts the app has always shipped with.
var demoUsers = []struct{ username, password, role string }{
	{"rajat", "pass123", model.RolePatient},
	{"guest", "guest", model.RolePatient},
	{"carol", "care123", model.RoleCaretaker},
	{"admin", "admin123", model.RoleAdmin},
}

// LoadFileUserRepository reads path. An empty path yields the demo accounts.
func LoadFileUserRepository(path string) (*FileUserRepository, error) {
	if path == "" {
		logger.Sugar.Warn("No users file configured, falling back to demo accounts")
		return NewDemoUserRepository()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var file usersFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse users file %s: %w", path, err)
	}

	repo := &FileUserRepository{users: make(map[string]userEntry, len(file.Users))}
	for _, u := range file.Users {
		if u.Username == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("users file %s: entry without username or password_hash", path)
		}
		if !model.ValidUsername(u.Username) {
			return nil, fmt.Errorf("users file %s: %w %q", path, model.ErrInvalidUsername, u.Username)
		}
		if !model.ValidRole(u.Role) {
			return nil, fmt.Errorf("users file %s: user %s: %w %q", path, u.Username, model.ErrUnknownRole, u.Role)
		}
		repo.users[u.Username] = u
	}
	logger.Sugar.Infof("Loaded %d users from %s", len(repo.users), path)
	return repo, nil
}

func NewDemoUserRepository() (*FileUserRepository, error) {
	repo := &FileUserRepository{users: make(map[string]userEntry, len(demoUsers))}
	for _, d := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		repo.users[d.username] = userEntry{Username: d.username, PasswordHash: string(hash), Role: d.role}
	}
	return repo, nil
}

func (r *FileUserRepository) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	entry, ok := r.users[username]
	if !ok {
		return model.User{}, model.ErrInvalidCredentials
	}
	if err := checkPassword(entry.PasswordHash, password); err != nil {
		return model.User{}, err
	}
	return model.User{Username: entry.Username, Role: entry.Role}, nil
}

func checkPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return model.ErrInvalidCredentials
	}
	if err != nil {
		logger.Sugar.Errorf("Stored password hash is unusable: %v", err)
		return model.ErrInvalidCredentials
	}
	return nil
}

// HashPassword produces a hash suitable for the users file or table.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
