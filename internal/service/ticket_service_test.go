package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTicketSecret = "9f2c0d7a61b34e58a0c1d2e3f4a5b6c79f2c0d7a61b34e58a0c1d2e3f4a5b6c7"

func TestJWTTicketService_IssueAndVerify(t *testing.T) {
	svc := NewJWTTicketService(10 * time.Second)
	eventID := uuid.New()

	token, expiresAt, err := svc.Issue(eventID, testTicketSecret, time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	assert.NoError(t, svc.Verify(token, testTicketSecret, eventID))
}

func TestJWTTicketService_Expiry(t *testing.T) {
	issuedAt := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		valid   bool
	}{
		{"fresh", 30 * time.Second, true},
		{"expired within tolerance", 65 * time.Second, true},
		{"expired beyond tolerance", 75 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewJWTTicketService(10 * time.Second)
			svc.now = func() time.Time { return issuedAt }
			eventID := uuid.New()

			token, _, err := svc.Issue(eventID, testTicketSecret, 60*time.Second)
			require.NoError(t, err)

			svc.now = func() time.Time { return issuedAt.Add(tt.elapsed) }
			err = svc.Verify(token, testTicketSecret, eventID)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrTicketInvalid))
			}
		})
	}
}

func TestJWTTicketService_WrongSecret(t *testing.T) {
	svc := NewJWTTicketService(10 * time.Second)
	eventID := uuid.New()

	token, _, err := svc.Issue(eventID, "secret-of-another-event", time.Minute)
	require.NoError(t, err)

	err = svc.Verify(token, testTicketSecret, eventID)
	assert.True(t, errors.Is(err, ErrTicketInvalid))
}

func TestJWTTicketService_WrongEvent(t *testing.T) {
	svc := NewJWTTicketService(10 * time.Second)

	token, _, err := svc.Issue(uuid.New(), testTicketSecret, time.Minute)
	require.NoError(t, err)

	err = svc.Verify(token, testTicketSecret, uuid.New())
	assert.ErrorContains(t, err, "another event")
}

func TestJWTTicketService_RejectsOtherAlgorithms(t *testing.T) {
	svc := NewJWTTicketService(10 * time.Second)
	eventID := uuid.New()

	claims := jwt.MapClaims{"event_id": eventID.String(), "exp": time.Now().Add(time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testTicketSecret))
	require.NoError(t, err)

	assert.Error(t, svc.Verify(token, testTicketSecret, eventID))
}

func TestJWTTicketService_RequiresExpiry(t *testing.T) {
	svc := NewJWTTicketService(10 * time.Second)
	eventID := uuid.New()

	claims := jwt.MapClaims{"event_id": eventID.String()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testTicketSecret))
	require.NoError(t, err)

	assert.Error(t, svc.Verify(token, testTicketSecret, eventID))
}

func TestJWTTicketService_Garbage(t *testing.T) {
	svc := NewJWTTicketService(10 * time.Second)
	assert.Error(t, svc.Verify("not.a.ticket", testTicketSecret, uuid.New()))
	assert.Error(t, svc.Verify("", testTicketSecret, uuid.New()))
}
