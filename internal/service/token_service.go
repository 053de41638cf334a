package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	refreshKeyPrefix = "refresh:"
	resetKeyPrefix   = "reset:"

	resetTokenBytes = 32
)

// sessionClaims are the signed claims carried by both session tokens.
// Family identifies the refresh chain a token belongs to; every rotation
// keeps the family and mints a fresh token ID.
type sessionClaims struct {
	Family string `json:"fam"`
	jwt.RegisteredClaims
}

// JWTTokenService implements ports.TokenService using HS256 JWT pairs.
// Access and refresh tokens are signed with separate secrets, and the
// currently valid refresh token of each family is tracked in the
// credential store so an exchange can happen exactly once.
type JWTTokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	issuer        string
	resetTTL      time.Duration

	store     ports.CredentialStore
	merchants ports.MerchantRepository
	hasher    ports.HashService

	now func() time.Time
}

// TokenServiceConfig carries the knobs for NewJWTTokenService.
type TokenServiceConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
	ResetTTL      time.Duration
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(
	cfg TokenServiceConfig,
	store ports.CredentialStore,
	merchants ports.MerchantRepository,
	hasher ports.HashService,
) *JWTTokenService {
	return &JWTTokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		issuer:        cfg.Issuer,
		resetTTL:      cfg.ResetTTL,
		store:         store,
		merchants:     merchants,
		hasher:        hasher,
		now:           time.Now,
	}
}

// IssuePair mints a fresh access/refresh pair under a new token family
// and records the refresh token as the family's current one.
func (s *JWTTokenService) IssuePair(ctx context.Context, merchantID uuid.UUID) (*ports.SessionPair, error) {
	return s.issuePair(ctx, merchantID, uuid.New())
}

func (s *JWTTokenService) issuePair(ctx context.Context, merchantID, family uuid.UUID) (*ports.SessionPair, error) {
	now := s.now()
	accessExpiresAt := now.Add(s.accessExpiry)
	jti := uuid.New()

	accessToken, err := s.sign(s.accessSecret, sessionClaims{
		Family: family.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   merchantID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
		},
	})
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	refreshToken, err := s.sign(s.refreshSecret, sessionClaims{
		Family: family.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   merchantID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
		},
	})
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	if err := s.store.Set(ctx, refreshKeyPrefix+family.String(), jti.String(), s.refreshExpiry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("recording refresh token: %w", err))
	}

	return &ports.SessionPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: accessExpiresAt,
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair in the same
// family. The exchange claims the family's store entry atomically, so a
// token can be exchanged at most once; presenting an already-rotated
// token removes the entry and with it the whole family.
func (s *JWTTokenService) Refresh(ctx context.Context, refreshToken string) (*ports.SessionPair, error) {
	claims, err := s.parse(s.refreshSecret, refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}

	merchantID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}
	family, err := uuid.Parse(claims.Family)
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}

	current, err := s.store.GetDel(ctx, refreshKeyPrefix+family.String())
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("claiming refresh token: %w", err))
	}
	if current == "" || current != claims.ID {
		// Either the family expired or this token was already rotated.
		// The GetDel above has revoked the family in both cases.
		return nil, apperror.ErrInvalidToken()
	}

	return s.issuePair(ctx, merchantID, family)
}

// ValidateAccess parses and validates an access token.
func (s *JWTTokenService) ValidateAccess(tokenString string) (*ports.TokenClaims, error) {
	claims, err := s.parse(s.accessSecret, tokenString)
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}

	merchantID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}
	family, err := uuid.Parse(claims.Family)
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}

	return &ports.TokenClaims{
		MerchantID: merchantID,
		Family:     family,
	}, nil
}

// IssueResetTicket creates an opaque single-use password reset ticket.
// If the store write fails no ticket is handed out.
func (s *JWTTokenService) IssueResetTicket(ctx context.Context, merchantID uuid.UUID) (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", apperror.InternalError(fmt.Errorf("generating reset ticket: %w", err))
	}
	ticket := hex.EncodeToString(buf)

	if err := s.store.Set(ctx, resetKeyPrefix+ticket, merchantID.String(), s.resetTTL); err != nil {
		return "", apperror.InternalError(fmt.Errorf("storing reset ticket: %w", err))
	}

	return ticket, nil
}

// ConsumeResetTicket redeems a reset ticket and sets the new password.
// It reports only success or failure; an unknown, expired or already
// used ticket and a store outage all look the same to the caller.
func (s *JWTTokenService) ConsumeResetTicket(ctx context.Context, ticket string, newPassword string) bool {
	merchantStr, err := s.store.GetDel(ctx, resetKeyPrefix+ticket)
	if err != nil || merchantStr == "" {
		return false
	}

	merchantID, err := uuid.Parse(merchantStr)
	if err != nil {
		return false
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return false
	}

	if err := s.merchants.UpdatePassword(ctx, merchantID, hash); err != nil {
		return false
	}

	return true
}

func (s *JWTTokenService) sign(secret []byte, claims sessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *JWTTokenService) parse(secret []byte, tokenString string) (*sessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
