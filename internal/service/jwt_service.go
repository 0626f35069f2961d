package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	claimSubject  = "sub"
	claimID       = "jti"
	claimIssuedAt = "iat"
	claimExpires  = "exp"
	claimRefresh  = "refresh"
)

// Claims is a decoded token payload. Custom holds every field that is not
// one of the registered claims above.
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Refresh   bool
	Custom    map[string]any
}

// TokenCodec signs and verifies claim sets with a shared HMAC secret.
type TokenCodec struct {
	secretKey []byte
	method    jwt.SigningMethod
	now       func() time.Time
}

func NewTokenCodec(secretKey string, algorithm string) (*TokenCodec, error) {
	key := []byte(secretKey)
	if len(key) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	return &TokenCodec{
		secretKey: key,
		method:    method,
		now:       time.Now,
	}, nil
}

// Encode signs a new token for subject. The jti and issued-at are generated
// here, so two calls with the same arguments never return the same token.
func (c *TokenCodec) Encode(subject string, custom map[string]any, ttl time.Duration, refresh bool) (string, error) {
	now := c.now()

	mc := jwt.MapClaims{}
	for k, v := range custom {
		mc[k] = v
	}
	mc[claimSubject] = subject
	mc[claimID] = uuid.New().String()
	mc[claimIssuedAt] = jwt.NewNumericDate(now)
	mc[claimExpires] = jwt.NewNumericDate(now.Add(ttl))
	mc[claimRefresh] = refresh

	signed, err := jwt.NewWithClaims(c.method, mc).SignedString(c.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Decode verifies tokenString and returns its claims, or nil when the token
// cannot be trusted for any reason. Numeric custom claims come back as
// json.Number so they re-encode exactly.
func (c *TokenCodec) Decode(tokenString string) *Claims {
	mc := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, mc, func(token *jwt.Token) (interface{}, error) {
		return c.secretKey, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
		jwt.WithJSONNumber(),
	)
	if err != nil || !token.Valid {
		return nil
	}

	return claimsFromMap(mc)
}

func claimsFromMap(mc jwt.MapClaims) *Claims {
	subject, err := mc.GetSubject()
	if err != nil || subject == "" {
		return nil
	}

	jti, ok := mc[claimID].(string)
	if !ok || jti == "" {
		return nil
	}

	refresh, ok := mc[claimRefresh].(bool)
	if !ok {
		return nil
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	claims := &Claims{
		Subject:   subject,
		ID:        jti,
		ExpiresAt: exp.Time,
		Refresh:   refresh,
		Custom:    map[string]any{},
	}

	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	for k, v := range mc {
		switch k {
		case claimSubject, claimID, claimIssuedAt, claimExpires, claimRefresh:
			continue
		}
		claims.Custom[k] = v
	}

	return claims
}

func GenerateSecretKey() (string, error) {
	key := make([]byte, 32) // 256 bits
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(key), nil
}
