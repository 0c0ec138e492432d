package kling

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

const (
	tokenTTL      = 30 * time.Minute
	tokenBackdate = 60 * time.Second
)

type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

type tokenClaims struct {
	Iss string `json:"iss"`
	Exp int64  `json:"exp"`
	Nbf int64  `json:"nbf"`
}

// signToken produces the short-lived HS256 bearer token the vendor expects:
// issued for the access key, valid for 30 minutes, with the not-before
// backdated 60 seconds to absorb clock skew.
func signToken(accessKey, secretKey string, now time.Time) (string, error) {
	header, err := json.Marshal(tokenHeader{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", fmt.Errorf("kling: marshal token header: %w", err)
	}
	claims, err := json.Marshal(tokenClaims{
		Iss: accessKey,
		Exp: now.Add(tokenTTL).Unix(),
		Nbf: now.Add(-tokenBackdate).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("kling: marshal token claims: %w", err)
	}

	enc := base64.RawURLEncoding
	message := enc.EncodeToString(header) + "." + enc.EncodeToString(claims)
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(message))
	return message + "." + enc.EncodeToString(mac.Sum(nil)), nil
}
