package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LED_001", "Insufficient coins", http.StatusPaymentRequired),
			expected: "[LED_001] Insufficient coins",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, New("LED_001", "test", http.StatusBadRequest).Unwrap())
}

func TestAppError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("claim: %w", ErrInsufficientFundsDetail(3, 10))

	assert.True(t, errors.Is(err, ErrInsufficientFunds()))
	assert.False(t, errors.Is(err, ErrOutOfStock()))
}

func TestErrorCatalog(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientFunds", ErrInsufficientFunds(), "LED_001", 402},
		{"InvalidAmount", ErrInvalidAmount(), "LED_002", 400},
		{"NotFound", ErrNotFound("Wallet"), "LED_003", 404},
		{"WalletExists", ErrWalletExists(), "LED_004", 409},
		{"SameWallet", ErrSameWallet(), "LED_005", 400},
		{"EventInactive", ErrEventInactive(), "RWD_001", 400},
		{"BudgetExhausted", ErrBudgetExhausted(), "RWD_002", 409},
		{"BudgetRaced", ErrBudgetRaced(), "RWD_003", 409},
		{"TicketExpired", ErrTicketExpired(), "RWD_004", 401},
		{"AlreadyClaimed", ErrAlreadyClaimed(), "RWD_005", 409},
		{"TreasuryBudget", ErrInsufficientTreasuryBudget(10), "RWD_006", 400},
		{"OutOfStock", ErrOutOfStock(), "ORD_001", 409},
		{"SelfPurchase", ErrSelfPurchase(), "ORD_002", 400},
		{"InvalidDeliveryCode", ErrInvalidDeliveryCode(), "ORD_003", 400},
		{"NotOwner", ErrNotOwner(), "ORD_004", 403},
		{"OrderNotPending", ErrOrderNotPending(), "ORD_005", 409},
		{"AlreadyPromoted", ErrAlreadyPromoted(), "ORD_006", 409},
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"EmailExists", ErrEmailExists(), "AUTH_002", 409},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", 401},
		{"Forbidden", ErrForbidden(), "AUTH_004", 403},
		{"RateLimit", ErrRateLimitExceeded(), "RATE_001", 429},
		{"Validation", Validation("bad"), "VAL_001", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	encErr := ErrEncryptionFailure(inner)
	assert.Equal(t, "SYS_003", encErr.Code)

	internal := InternalError(inner)
	assert.Equal(t, "Internal server error", internal.Message)
}

func TestInsufficientFundsDetail(t *testing.T) {
	err := ErrInsufficientFundsDetail(4, 30)
	assert.Contains(t, err.Message, "available 4")
	assert.Contains(t, err.Message, "required 30")
}
