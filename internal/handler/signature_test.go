package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

// signPayload produces a valid signature header for a body and timestamp,
// mirroring what the payment processor sends.
func signPayload(body []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	body := []byte(`{"id":"evt_1","type":"checkout.completed"}`)
	now := time.Unix(1719830000, 0)

	t.Run("accepts a valid signature", func(t *testing.T) {
		header := signPayload(body, secret, now)
		if err := verifySignature(header, body, secret, now); err != nil {
			t.Fatalf("verifySignature: %v", err)
		}
	})

	t.Run("accepts within the tolerance window", func(t *testing.T) {
		header := signPayload(body, secret, now)
		if err := verifySignature(header, body, secret, now.Add(4*time.Minute)); err != nil {
			t.Fatalf("verifySignature: %v", err)
		}
	})

	t.Run("rejects a stale timestamp", func(t *testing.T) {
		header := signPayload(body, secret, now)
		if err := verifySignature(header, body, secret, now.Add(6*time.Minute)); err == nil {
			t.Fatal("stale signature accepted")
		}
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		header := signPayload(body, secret, now)
		other := []byte(`{"id":"evt_1","type":"checkout.completed","amount":0}`)
		if err := verifySignature(header, other, secret, now); err == nil {
			t.Fatal("tampered body accepted")
		}
	})

	t.Run("rejects the wrong secret", func(t *testing.T) {
		header := signPayload(body, "whsec_other", now)
		if err := verifySignature(header, body, secret, now); err == nil {
			t.Fatal("signature from wrong secret accepted")
		}
	})

	t.Run("rejects malformed headers", func(t *testing.T) {
		for _, header := range []string{"", "v1=deadbeef", "t=123", "t=abc,v1=deadbeef", "t=123,v1=zznothex"} {
			if err := verifySignature(header, body, secret, now); err == nil {
				t.Fatalf("malformed header %q accepted", header)
			}
		}
	})
}
