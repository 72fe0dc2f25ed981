package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carenest/pkg/logger"
)

const (
	RecaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	captchaTimeout     = 5 * time.Second
)

type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) bool
}

// RecaptchaVerifier checks a reCAPTCHA response token with Google. Any
// transport or decoding failure counts as a failed verification.
type RecaptchaVerifier struct {
	Secret   string
	Endpoint string
	Client   *http.Client
}

func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		Secret:   secret,
		Endpoint: RecaptchaVerifyURL,
		Client:   &http.Client{Timeout: captchaTimeout},
	}
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) bool {
	// Without a secret the check is disabled (local development).
	if v.Secret == "" {
		return true
	}

	form := url.Values{"secret": {v.Secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	ctx, cancel := context.WithTimeout(ctx, captchaTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Sugar.Errorf("Failed to build captcha request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.Client.Do(req)
	if err != nil {
		logger.Sugar.Warnf("Captcha verification request failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	var body struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Sugar.Warnf("Captcha verification returned an unreadable body: %v", err)
		return false
	}
	if !body.Success {
		logger.Sugar.Infof("Captcha rejected: %v", body.ErrorCodes)
	}
	return body.Success
}
