package web

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionManager mints the first-party session cookie handed to guests whose
// account was created mid-checkout, so they land logged in after the gateway
// redirect.
type SessionManager struct {
	secret []byte
	secure bool
	ttl    time.Duration
}

const sessionCookieName = "course_session"

func NewSessionManager(secret string, secure bool, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), secure: secure, ttl: ttl}
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

func (m *SessionManager) Mint(w http.ResponseWriter, userID string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return signed, nil
}

// ParseFromRequest returns the authenticated user id carried by the session
// cookie or Authorization header, or "" when there is none.
func (m *SessionManager) ParseFromRequest(r *http.Request) string {
	var raw string
	if c, err := r.Cookie(sessionCookieName); err == nil {
		raw = c.Value
	}
	if raw == "" {
		return ""
	}
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return ""
	}
	return claims.Subject
}
