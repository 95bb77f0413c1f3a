package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The payment processor signs each delivery with an HMAC-SHA256 over
// "<timestamp>.<raw body>" and sends it as
//
//	X-Payment-Signature: t=<unix seconds>,v1=<hex digest>
//
// Deliveries older than the tolerance are rejected to stop replays of
// captured payloads.
const signatureTolerance = 5 * time.Minute

var errBadSignature = errors.New("invalid webhook signature")

// verifySignature checks the signature header against the raw request
// body.  now is injected for tests.
func verifySignature(header string, body []byte, secret string, now time.Time) error {
	var ts int64
	var provided string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return errBadSignature
			}
			ts = n
		case "v1":
			provided = v
		}
	}
	if ts == 0 || provided == "" {
		return errBadSignature
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return errBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	decoded, err := hex.DecodeString(provided)
	if err != nil {
		return errBadSignature
	}
	expectedRaw, _ := hex.DecodeString(expected)
	if !hmac.Equal(decoded, expectedRaw) {
		return errBadSignature
	}
	return nil
}
