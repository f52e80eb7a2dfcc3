package handlers

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsByDefault(t *testing.T) {
	rl := newRateLimiter()
	if !rl.Allow("1.2.3.4") {
		t.Error("Fresh IP should be allowed")
	}
	if rl.NeedsCaptcha("1.2.3.4") {
		t.Error("Fresh IP should not need a captcha")
	}
}

func TestRateLimiterCaptchaEscalation(t *testing.T) {
	rl := newRateLimiter()
	ip := "1.2.3.5"

	for i := 0; i < captchaThreshold-1; i++ {
		rl.RecordFailure(ip)
	}
	if rl.NeedsCaptcha(ip) {
		t.Errorf("Captcha required after only %d failures", captchaThreshold-1)
	}

	rl.RecordFailure(ip)
	if !rl.NeedsCaptcha(ip) {
		t.Errorf("Captcha should be required after %d failures", captchaThreshold)
	}
	// Still allowed to try, just with a captcha
	if !rl.Allow(ip) {
		t.Error("IP should not be blocked at the captcha threshold")
	}
}

func TestRateLimiterBlocksAfterMaxAttempts(t *testing.T) {
	rl := newRateLimiter()
	ip := "1.2.3.6"

	for i := 0; i < maxAttempts; i++ {
		rl.RecordFailure(ip)
	}
	if rl.Allow(ip) {
		t.Errorf("IP should be blocked after %d failures", maxAttempts)
	}
}

func TestRateLimiterResetClears(t *testing.T) {
	rl := newRateLimiter()
	ip := "1.2.3.7"

	for i := 0; i < maxAttempts; i++ {
		rl.RecordFailure(ip)
	}
	rl.Reset(ip)

	if !rl.Allow(ip) {
		t.Error("Reset should unblock the IP")
	}
	if rl.NeedsCaptcha(ip) {
		t.Error("Reset should clear the captcha requirement")
	}
}

func TestRateLimiterBlockExpires(t *testing.T) {
	rl := newRateLimiter()
	ip := "1.2.3.8"

	rl.blocked[ip] = time.Now().Add(-time.Minute)
	rl.attempts[ip] = &attemptData{count: maxAttempts, firstAttempt: time.Now().Add(-time.Hour)}

	if !rl.Allow(ip) {
		t.Error("Expired block should be lifted")
	}
	if rl.NeedsCaptcha(ip) {
		t.Error("Expired block should also clear the failure count")
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:54321"
	if ip := getClientIP(r); ip != "192.0.2.10" {
		t.Errorf("Expected 192.0.2.10, got %q", ip)
	}

	r.RemoteAddr = "192.0.2.11"
	if ip := getClientIP(r); ip != "192.0.2.11" {
		t.Errorf("Expected passthrough for portless address, got %q", ip)
	}
}
