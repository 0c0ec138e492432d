package kling

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSignTokenShape(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token, err := signToken("access-key", "secret-key", now)
	if err != nil {
		t.Fatalf("signToken() error = %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}

	headerRaw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		t.Fatalf("header not base64url: %v", err)
	}
	var header tokenHeader
	if err := json.Unmarshal(headerRaw, &header); err != nil {
		t.Fatalf("header not json: %v", err)
	}
	if header.Alg != "HS256" || header.Typ != "JWT" {
		t.Fatalf("header = %+v, want HS256/JWT", header)
	}

	claimsRaw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("claims not base64url: %v", err)
	}
	var claims tokenClaims
	if err := json.Unmarshal(claimsRaw, &claims); err != nil {
		t.Fatalf("claims not json: %v", err)
	}
	if claims.Iss != "access-key" {
		t.Fatalf("iss = %q, want the access key", claims.Iss)
	}
	if claims.Exp != now.Add(30*time.Minute).Unix() {
		t.Fatalf("exp = %d, want now+30m", claims.Exp)
	}
	if claims.Nbf != now.Add(-60*time.Second).Unix() {
		t.Fatalf("nbf = %d, want now-60s", claims.Nbf)
	}

	mac := hmac.New(sha256.New, []byte("secret-key"))
	mac.Write([]byte(parts[0] + "." + parts[1]))
	wantSig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if parts[2] != wantSig {
		t.Fatal("signature does not verify against the secret key")
	}
}

func TestSignTokenNoPadding(t *testing.T) {
	token, err := signToken("a", "b", time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("signToken() error = %v", err)
	}
	if strings.Contains(token, "=") {
		t.Fatalf("token %q contains padding", token)
	}
}
