package handler

import (
	"campus-ledger/internal/adapter/http/dto"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"
	"campus-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler covers treasury supply and ledger audit endpoints.
type AdminHandler struct {
	treasurySvc  ports.TreasuryService
	reportingSvc ports.ReportingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(treasurySvc ports.TreasuryService, reportingSvc ports.ReportingService) *AdminHandler {
	return &AdminHandler{treasurySvc: treasurySvc, reportingSvc: reportingSvc}
}

// Vault handles GET /api/v1/admin/treasury.
func (h *AdminHandler) Vault(c *gin.Context) {
	vault, err := h.treasurySvc.Vault(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, vault)
}

// MintSemester handles POST /api/v1/admin/mint/semester.
func (h *AdminHandler) MintSemester(c *gin.Context) {
	var req dto.MintSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.treasurySvc.MintSemester(c.Request.Context(), req.Semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToTransactionResponse(txn))
}

// MintManual handles POST /api/v1/admin/mint/manual.
func (h *AdminHandler) MintManual(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ManualMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := h.treasurySvc.MintManual(c.Request.Context(), ports.ManualMintRequest{
		AdminID:  adminID,
		Password: req.Password,
		Amount:   req.Amount,
		Reason:   req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToTransactionResponse(txn))
}

// Grant handles POST /api/v1/admin/grants.
func (h *AdminHandler) Grant(c *gin.Context) {
	var req dto.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := h.treasurySvc.Grant(c.Request.Context(), ports.GrantRequest{
		UserID: uuid.MustParse(req.UserID),
		Amount: req.Amount,
		Reason: req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToTransactionResponse(txn))
}

// VerifyChain handles GET /api/v1/admin/ledger/verify.
func (h *AdminHandler) VerifyChain(c *gin.Context) {
	report, err := h.reportingSvc.VerifyChain(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
