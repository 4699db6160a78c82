// Package auth supplies the current principal and sign-in/sign-out
// transitions for oclock.
//
// The provider does not implement an account system; it validates
// bearer tokens issued by a backend (or by IssueToken for local use)
// and exposes the principal they name. Everything downstream reacts to
// principal changes through OnChange callbacks - the tracker re-hydrates
// its collections from the tier the new principal implies.
package auth

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload carried by oclock bearer tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Provider tracks the authenticated principal, or none when signed out.
type Provider struct {
	secret []byte
	logger *log.Logger

	mu        sync.Mutex
	principal string
	callbacks []func(principal string)
}

// New creates a Provider that validates tokens signed with secret.
// If logger is nil, a default logger writing to stderr is used.
func New(secret []byte, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.New(os.Stderr, "[auth] ", log.LstdFlags)
	}
	return &Provider{
		secret: secret,
		logger: logger,
	}
}

// CurrentPrincipal returns the authenticated principal id, and whether
// anyone is signed in at all.
func (p *Provider) CurrentPrincipal() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.principal, p.principal != ""
}

// OnChange registers a callback fired on every principal transition.
// The callback receives the new principal id, or "" on sign-out. It is
// invoked synchronously on the goroutine driving the transition.
func (p *Provider) OnChange(cb func(principal string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, cb)
}

// SignIn validates a bearer token and, if valid, transitions to the
// principal it names. Returns the principal id.
func (p *Provider) SignIn(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}

	principal := claims.UserID
	if principal == "" {
		principal = claims.Subject
	}
	if principal == "" {
		return "", fmt.Errorf("token carries no principal")
	}

	p.setPrincipal(principal)
	p.logger.Printf("Signed in as %s", principal)
	return principal, nil
}

// SignOut transitions to the signed-out state. A no-op when nobody is
// signed in.
func (p *Provider) SignOut() {
	p.mu.Lock()
	if p.principal == "" {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.setPrincipal("")
	p.logger.Println("Signed out")
}

// IssueToken mints a signed bearer token for the given principal,
// valid for ttl. Used by the login command and by tests.
func (p *Provider) IssueToken(principal string, ttl time.Duration) (string, error) {
	if principal == "" {
		return "", fmt.Errorf("principal is required")
	}

	now := time.Now()
	claims := &Claims{
		UserID: principal,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// setPrincipal swaps the principal and fires change callbacks outside
// the lock.
func (p *Provider) setPrincipal(principal string) {
	p.mu.Lock()
	if p.principal == principal {
		p.mu.Unlock()
		return
	}
	p.principal = principal
	callbacks := make([]func(string), len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(principal)
	}
}
