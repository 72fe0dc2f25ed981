package service

import (
	"context"
	"strings"

	"carenest/internal/auth/model"
	"carenest/internal/auth/repository"
	"carenest/pkg/logger"
)

type AuthService struct {
	Users   repository.UserRepository
	Captcha CaptchaVerifier
	Tokens  *TokenService
}

func NewAuthService(users repository.UserRepository, captcha CaptchaVerifier, tokens *TokenService) *AuthService {
	return &AuthService{Users: users, Captcha: captcha, Tokens: tokens}
}

// Login verifies the captcha, then the credentials, and returns the user with
// a fresh session token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.User, string, error) {
	if !s.Captcha.Verify(ctx, req.CaptchaToken, req.RemoteIP) {
		return model.User{}, "", model.ErrCaptchaFailed
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		return model.User{}, "", model.ErrInvalidCredentials
	}

	user, err := s.Users.Authenticate(ctx, username, password)
	if err != nil {
		logger.Sugar.Infof("Failed login for %s: %v", username, err)
		return model.User{}, "", err
	}

	token, err := s.Tokens.Issue(user)
	if err != nil {
		return model.User{}, "", err
	}
	logger.Sugar.Infof("User %s logged in as %s", user.Username, user.Role)
	return user, token, nil
}
