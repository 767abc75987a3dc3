package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTicketInvalid is returned for any ticket that fails verification.
var ErrTicketInvalid = errors.New("claim ticket invalid")

type ticketClaims struct {
	EventID string `json:"event_id"`
	jwt.RegisteredClaims
}

// JWTTicketService implements ports.TicketService. Tickets are HS256 tokens
// signed with the event's own secret.
type JWTTicketService struct {
	tolerance time.Duration
	now       func() time.Time
}

// NewJWTTicketService creates a ticket service that accepts tickets up to
// tolerance past their expiry.
func NewJWTTicketService(tolerance time.Duration) *JWTTicketService {
	return &JWTTicketService{tolerance: tolerance, now: time.Now}
}

// Issue signs a ticket for eventID valid for ttl.
func (s *JWTTicketService) Issue(eventID uuid.UUID, secret string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := ticketClaims{
		EventID: eventID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing ticket: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks signature, expiry (with tolerance) and the event binding.
func (s *JWTTicketService) Verify(token string, secret string, eventID uuid.UUID) error {
	claims := &ticketClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.tolerance),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTicketInvalid, err)
	}
	if claims.EventID != eventID.String() {
		return fmt.Errorf("%w: issued for another event", ErrTicketInvalid)
	}
	return nil
}
