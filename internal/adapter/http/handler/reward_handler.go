package handler

import (
	"campus-ledger/internal/adapter/http/dto"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"
	"campus-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RewardHandler exposes reward events to students and admins.
type RewardHandler struct {
	rewardSvc ports.RewardService
}

// NewRewardHandler creates a new RewardHandler.
func NewRewardHandler(rewardSvc ports.RewardService) *RewardHandler {
	return &RewardHandler{rewardSvc: rewardSvc}
}

// ListEvents handles GET /api/v1/rewards/events.
func (h *RewardHandler) ListEvents(c *gin.Context) {
	events, err := h.rewardSvc.ListEvents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Claim handles POST /api/v1/rewards/claim.
func (h *RewardHandler) Claim(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ClaimRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.rewardSvc.ClaimReward(c.Request.Context(), ports.ClaimRequest{
		EventID: uuid.MustParse(req.EventID),
		UserID:  userID,
		Token:   req.Token,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// CreateEvent handles POST /api/v1/admin/rewards/events.
func (h *RewardHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateRewardEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	event, err := h.rewardSvc.CreateEvent(c.Request.Context(), ports.CreateRewardEventRequest{
		Name:               req.Name,
		Description:        req.Description,
		RewardAmount:       req.RewardAmount,
		TotalBudget:        req.TotalBudget,
		ExpiresAt:          req.ExpiresAt,
		RefreshRateSeconds: req.QRRefreshRate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// ToggleEvent handles PATCH /api/v1/admin/rewards/events/:id/status.
func (h *RewardHandler) ToggleEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.ToggleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	event, err := h.rewardSvc.ToggleEvent(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// DeleteEvent handles DELETE /api/v1/admin/rewards/events/:id.
func (h *RewardHandler) DeleteEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.rewardSvc.DeleteEvent(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Ticket handles GET /api/v1/admin/rewards/events/:id/ticket. The display
// polls this at the event's refresh rate.
func (h *RewardHandler) Ticket(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.rewardSvc.IssueClaimTicket(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.OK(c, ticket)
}
