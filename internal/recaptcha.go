package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier checks reCAPTCHA v3 tokens against Google's siteverify
// endpoint.
type RecaptchaVerifier struct {
	// VerifyURL is overridable so tests can point at a local server.
	VerifyURL string
	client    *http.Client
}

func NewRecaptchaVerifier() *RecaptchaVerifier {
	return &RecaptchaVerifier{
		VerifyURL: recaptchaVerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify returns whether the token passes and the reported score.
//
// An empty token fails immediately with score 0. Otherwise the token is sent
// to the verification endpoint and passes only if the response reports
// success with a score at or above rc.MinScore.
//
// On any transport or decode error the verifier FAILS OPEN: it returns
// (true, 0) so that an outage of the scoring service never blocks legitimate
// submissions. This is a deliberate availability trade-off, not a bug; do not
// change it to fail-closed.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string, rc RecaptchaConfig) (bool, float64) {
	logger := LoggerFromContext(ctx)

	if token == "" {
		logger.Warn("no recaptcha token provided")
		return false, 0
	}

	form := url.Values{
		"secret":   {rc.SecretKey},
		"response": {token},
		"remoteip": {remoteIP},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Error("recaptcha request build failed", "err", err)
		return true, 0
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		logger.Error("recaptcha verification unreachable, allowing submission", "err", err)
		return true, 0
	}
	defer resp.Body.Close()

	var result struct {
		Success bool    `json:"success"`
		Score   float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("recaptcha response decode failed, allowing submission", "err", err)
		return true, 0
	}

	logger.Info("recaptcha verification", "success", result.Success, "score", result.Score)

	if !result.Success || result.Score < rc.MinScore {
		return false, result.Score
	}
	return true, result.Score
}
