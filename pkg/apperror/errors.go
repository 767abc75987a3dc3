package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can use errors.Is against a constructor result.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient coins in wallet", http.StatusPaymentRequired)
}

// ErrInsufficientFundsDetail reports how many coins were available.
func ErrInsufficientFundsDetail(available, required int64) *AppError {
	return New("LED_001",
		fmt.Sprintf("Insufficient coins in wallet: available %d, required %d", available, required),
		http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("LED_002", "Amount must be a positive integer", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrWalletExists() *AppError {
	return New("LED_004", "Wallet already exists for owner", http.StatusConflict)
}

func ErrSameWallet() *AppError {
	return New("LED_005", "Source and destination wallet must differ", http.StatusBadRequest)
}

// ---- Rewards (RWD) ----

func ErrEventInactive() *AppError {
	return New("RWD_001", "Reward event is not active", http.StatusBadRequest)
}

func ErrBudgetExhausted() *AppError {
	return New("RWD_002", "Reward event budget exhausted", http.StatusConflict)
}

func ErrBudgetRaced() *AppError {
	return New("RWD_003", "Reward budget was consumed by a concurrent claim", http.StatusConflict)
}

func ErrTicketExpired() *AppError {
	return New("RWD_004", "Claim ticket expired or invalid, scan a fresh code", http.StatusUnauthorized)
}

func ErrAlreadyClaimed() *AppError {
	return New("RWD_005", "Reward already claimed for this event", http.StatusConflict)
}

func ErrInsufficientTreasuryBudget(available int64) *AppError {
	return New("RWD_006",
		fmt.Sprintf("Treasury cannot back this budget: %d coins available", available),
		http.StatusBadRequest)
}

// ---- Orders (ORD) ----

func ErrOutOfStock() *AppError {
	return New("ORD_001", "Product is out of stock", http.StatusConflict)
}

func ErrSelfPurchase() *AppError {
	return New("ORD_002", "Cannot buy your own product", http.StatusBadRequest)
}

func ErrInvalidDeliveryCode() *AppError {
	return New("ORD_003", "Invalid delivery code", http.StatusBadRequest)
}

func ErrNotOwner() *AppError {
	return New("ORD_004", "Not the owner of this resource", http.StatusForbidden)
}

func ErrOrderNotPending() *AppError {
	return New("ORD_005", "Order is not pending delivery", http.StatusConflict)
}

func ErrAlreadyPromoted() *AppError {
	return New("ORD_006", "Product already has an active promotion", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_004", "Insufficient role for this operation", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
