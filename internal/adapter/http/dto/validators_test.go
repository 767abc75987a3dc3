package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Email:    "  ana@campus.edu  ",
		Password: "  pass1234  ",
		Name:     " Ana ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "ana@campus.edu", req.Email)
	assert.Equal(t, "Ana", req.Name)
	assert.Equal(t, "  pass1234  ", req.Password, "secrets are not rewritten")
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := GrantRequest{
		UserID: "0b6f1f0e-52f4-4c55-9a5e-1d9f0d6b7a11",
		Amount: 5,
		Reason: "prize <script>alert('x')</script>",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Reason, "&lt;script&gt;")
	assert.NotContains(t, req.Reason, "<script>")
}

func TestSanitizeStruct_SkipsTaggedToken(t *testing.T) {
	req := ClaimRewardRequest{EventID: " id ", Token: "a.b<c"}
	SanitizeStruct(&req)

	assert.Equal(t, "id", req.EventID)
	assert.Equal(t, "a.b<c", req.Token)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID(t *testing.T) {
	valid := []string{"2026A", "fall-2026", "SEM_1", "v1.2"}
	for _, tc := range valid {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}

	invalid := []string{
		"fall 2026",  // space
		"sem<1>",     // angle brackets
		"x;DROP",     // semicolon
		"",           // empty
		"2026\nfall", // newline
	}
	for _, tc := range invalid {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestBinding_DeliveryCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"1000", true},
		{"4821", true},
		{"9999", true},
		{"0999", false},
		{"123", false},
		{"12345", false},
		{"12a4", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&ConfirmDeliveryRequest{Code: tt.code})
			assert.Equal(t, tt.valid, err == nil, "code %q", tt.code)
		})
	}
}

func TestBinding_RewardEventBudget(t *testing.T) {
	ok := CreateRewardEventRequest{Name: "Talk", RewardAmount: 10, TotalBudget: 10}
	assert.NoError(t, binding.Validator.ValidateStruct(&ok))

	short := CreateRewardEventRequest{Name: "Talk", RewardAmount: 10, TotalBudget: 9}
	assert.Error(t, binding.Validator.ValidateStruct(&short))

	fastQR := CreateRewardEventRequest{Name: "Talk", RewardAmount: 1, TotalBudget: 9, QRRefreshRate: 1}
	assert.Error(t, binding.Validator.ValidateStruct(&fastQR))
}

func TestBinding_MintSemester(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&MintSemesterRequest{Semester: "2026A"}))
	assert.Error(t, binding.Validator.ValidateStruct(&MintSemesterRequest{Semester: "2026 A"}))
}
