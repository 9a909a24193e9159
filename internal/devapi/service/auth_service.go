package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"userconsole"
	"userconsole/internal/repository"
)

const defaultTokenTTL = time.Hour

// AuthService checks credentials and issues HS256 access tokens.
type AuthService struct {
	repo   repository.Users
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(repo repository.Users, tokens TokenConfig) *AuthService {
	ttl := tokens.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{repo: repo, secret: []byte(tokens.Secret), ttl: ttl, now: time.Now}
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int                  `json:"user_id"`
	Type   userconsole.UserType `json:"type"`
}

// Login validates credentials and returns a token with the user. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (userconsole.LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return userconsole.LoginResult{}, err
	}
	if u == nil {
		return userconsole.LoginResult{}, ErrInvalidCredentials
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return userconsole.LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(u.User)
	if err != nil {
		return userconsole.LoginResult{}, err
	}
	return userconsole.LoginResult{Token: token, User: u.User}, nil
}

// ParseToken verifies signature and expiry and returns the claims.
func (s *AuthService) ParseToken(accessToken string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(u userconsole.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: u.ID,
		Type:   u.Type,
	})
	return token.SignedString(s.secret)
}
