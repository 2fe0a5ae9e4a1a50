package site

import (
	"context"
	"time"
)

// Rejection reasons are logged server-side only; callers must send a generic
// message so a spammer cannot learn which check tripped.
const (
	reasonTooFast   = "submitted too fast"
	reasonRecaptcha = "failed verification"
	reasonHoneypot  = "honeypot triggered"
)

// ScoreVerifier is the outbound bot-score check; satisfied by
// *RecaptchaVerifier and by test doubles.
type ScoreVerifier interface {
	Verify(ctx context.Context, token, remoteIP string, rc RecaptchaConfig) (bool, float64)
}

// submissionChecks is the anti-abuse slice of a form submission, independent
// of the form's own fields.
type submissionChecks struct {
	renderedAt string
	minElapsed time.Duration
	token      string
	honeypots  []string
	recaptcha  RecaptchaConfig
	clientIP   string
}

// Decision is the outcome of the admission pipeline for one submission. It is
// computed once and never revised.
type Decision struct {
	Admitted bool
	Reason   string
	Score    float64
	Elapsed  time.Duration
}

// admit runs the anti-abuse checks strictly in order, short-circuiting on the
// first failure: timing gate, then reCAPTCHA (skipped with a warning when no
// token was supplied; tokens are optional), then honeypot fields. The
// verifier is called before the honeypot check even though a populated
// honeypot will reject regardless; this matches the observed call ordering.
func admit(ctx context.Context, verifier ScoreVerifier, sub submissionChecks, now time.Time) Decision {
	logger := LoggerFromContext(ctx)

	ok, elapsed := checkTiming(sub.renderedAt, sub.minElapsed, now)
	if !ok {
		logger.Warn("submission rejected", "reason", reasonTooFast,
			"ip", sub.clientIP, "elapsed", elapsed)
		return Decision{Reason: reasonTooFast, Elapsed: elapsed}
	}

	var score float64
	if sub.token != "" {
		var passed bool
		passed, score = verifier.Verify(ctx, sub.token, sub.clientIP, sub.recaptcha)
		if !passed {
			logger.Warn("submission rejected", "reason", reasonRecaptcha,
				"ip", sub.clientIP, "score", score)
			return Decision{Reason: reasonRecaptcha, Score: score, Elapsed: elapsed}
		}
		logger.Info("recaptcha passed", "ip", sub.clientIP, "score", score)
	} else {
		logger.Warn("no recaptcha token provided, form submitted without bot protection",
			"ip", sub.clientIP)
	}

	for _, v := range sub.honeypots {
		if v != "" {
			logger.Warn("submission rejected", "reason", reasonHoneypot, "ip", sub.clientIP)
			return Decision{Reason: reasonHoneypot, Score: score, Elapsed: elapsed}
		}
	}

	return Decision{Admitted: true, Score: score, Elapsed: elapsed}
}
