// AngelaMos | 2026
// devserver.go

package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/tablehost/admin-api/internal/core"
)

const (
	devIssuer   = "identity-dev"
	devTokenTTL = time.Hour
)

// DevServer is an in-memory stand-in for the hosted auth service. It serves
// the same REST surface Client consumes, so local stacks and tests can run
// without the managed platform. Tokens are ES256 JWTs; passwords are stored
// as argon2id hashes.
type DevServer struct {
	mu      sync.RWMutex
	users   map[string]*devUser
	byEmail map[string]string

	privateKey jwk.Key
	publicKey  jwk.Key
	jwks       jwk.Set
	serviceKey string
}

type devUser struct {
	ID           string
	Email        string
	PasswordHash string
}

func NewDevServer(serviceKey string) (*DevServer, error) {
	rawKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	privateKey, err := jwk.Import(rawKey)
	if err != nil {
		return nil, fmt.Errorf("import private key: %w", err)
	}

	keyID := uuid.New().String()[:8]
	if setErr := privateKey.Set(jwk.KeyIDKey, keyID); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}
	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	if setErr := publicKey.Set(jwk.KeyUsageKey, "sig"); setErr != nil {
		return nil, fmt.Errorf("set key usage: %w", setErr)
	}

	jwks := jwk.NewSet()
	if addErr := jwks.AddKey(publicKey); addErr != nil {
		return nil, fmt.Errorf("add key to set: %w", addErr)
	}

	return &DevServer{
		users:      make(map[string]*devUser),
		byEmail:    make(map[string]string),
		privateKey: privateKey,
		publicKey:  publicKey,
		jwks:       jwks,
		serviceKey: serviceKey,
	}, nil
}

// AddUser registers a user and returns its identity.
func (s *DevServer) AddUser(email, password string) (*Identity, error) {
	hash, err := core.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &devUser{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: hash,
	}

	s.mu.Lock()
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	s.mu.Unlock()

	return &Identity{ID: user.ID, Email: user.Email}, nil
}

// IssueToken mints a signed access token for an existing user.
func (s *DevServer) IssueToken(userID string) (string, error) {
	s.mu.RLock()
	user, ok := s.users[userID]
	s.mu.RUnlock()

	if !ok {
		return "", ErrUserNotFound
	}

	now := time.Now()

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(devIssuer).
		Subject(user.ID).
		IssuedAt(now).
		Expiration(now.Add(devTokenTTL)).
		NotBefore(now).
		Claim("email", user.Email).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), s.privateKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

func (s *DevServer) verifyToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), s.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(devIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	s.mu.RLock()
	user, exists := s.users[subject]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}

	return &Identity{ID: user.ID, Email: user.Email}, nil
}

// Handler returns the REST surface: token grant, user introspection,
// privileged user deletion and the JWKS document.
func (s *DevServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/token", s.handleToken)
		r.Get("/user", s.handleUser)
		r.Delete("/admin/users/{userID}", s.handleDeleteUser)
		r.Get("/.well-known/jwks.json", s.handleJWKS)
	})

	return r
}

func (s *DevServer) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.RLock()
	userID, ok := s.byEmail[strings.ToLower(req.Email)]
	var user *devUser
	if ok {
		user = s.users[userID]
	}
	s.mu.RUnlock()

	var hash *string
	if user != nil {
		hash = &user.PasswordHash
	}

	valid, err := core.VerifyPasswordTimingSafe(req.Password, hash)
	if err != nil || !valid {
		writeAuthError(w, http.StatusBadRequest, "invalid login credentials")
		return
	}

	accessToken, err := s.IssueToken(user.ID)
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}

	refreshToken, err := core.GenerateSecureToken(32)
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"token_type":    "bearer",
		"expires_in":    int(devTokenTTL / time.Second),
		"refresh_token": refreshToken,
	})
}

func (s *DevServer) handleUser(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	ident, err := s.verifyToken(token)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	writeJSON(w, http.StatusOK, ident)
}

func (s *DevServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if s.serviceKey == "" || bearerToken(r) != s.serviceKey {
		writeAuthError(w, http.StatusUnauthorized, "invalid service credential")
		return
	}

	userID := chi.URLParam(r, "userID")

	s.mu.Lock()
	user, ok := s.users[userID]
	if ok {
		delete(s.users, userID)
		delete(s.byEmail, user.Email)
	}
	s.mu.Unlock()

	if !ok {
		writeAuthError(w, http.StatusNotFound, "User not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *DevServer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, s.jwks)
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}
