package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"sasbridge/internal/domain"
)

// TokenLifetime is how long an issued access token stays valid.
const TokenLifetime = 7 * 24 * time.Hour

const (
	tokenIssuer   = "sasbridge"
	tokenAudience = "sasbridge-clients"
)

// TokenClaims is the HS256 JWT payload carried by access tokens. Sub is the
// user ID.
type TokenClaims struct {
	Sub      string `json:"sub"`
	Email    string `json:"email,omitempty"`
	Exp      int64  `json:"exp"`
	Issuer   string `json:"iss"`
	Audience string `json:"aud"`
}

// IssueToken signs an access token for the user, expiring TokenLifetime
// after now.
func IssueToken(secret string, user *domain.User, now time.Time) (string, error) {
	return SignToken(secret, TokenClaims{
		Sub:      user.ID,
		Email:    user.Email,
		Exp:      now.Add(TokenLifetime).Unix(),
		Issuer:   tokenIssuer,
		Audience: tokenAudience,
	})
}

// SignToken encodes and signs claims as a compact HS256 JWT.
func SignToken(secret string, claims TokenClaims) (string, error) {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	headerJSON, _ := json.Marshal(header)
	payloadJSON, _ := json.Marshal(claims)
	headerEnc := base64.RawURLEncoding.EncodeToString(headerJSON)
	payloadEnc := base64.RawURLEncoding.EncodeToString(payloadJSON)
	data := headerEnc + "." + payloadEnc
	return data + "." + hmacSign(secret, data), nil
}

func hmacSign(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyToken checks the signature and expiry of a compact JWT and returns
// its claims. Expiry is evaluated against the supplied instant so callers
// can inject a clock.
func VerifyToken(secret, token string, now time.Time) (*TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("invalid token")
	}
	expected := hmacSign(secret, parts[0]+"."+parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, errors.New("invalid signature")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}
	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, err
	}
	if claims.Exp != 0 && now.Unix() > claims.Exp {
		return nil, domain.ErrTokenExpired
	}
	return &claims, nil
}
