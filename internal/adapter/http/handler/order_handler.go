package handler

import (
	"campus-ledger/internal/adapter/http/dto"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"
	"campus-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles marketplace purchases, deliveries and ads.
type OrderHandler struct {
	purchaseSvc ports.PurchaseService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(purchaseSvc ports.PurchaseService) *OrderHandler {
	return &OrderHandler{purchaseSvc: purchaseSvc}
}

// Purchase handles POST /api/v1/orders.
func (h *OrderHandler) Purchase(c *gin.Context) {
	buyerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.purchaseSvc.Purchase(c.Request.Context(), buyerID, uuid.MustParse(req.ProductID))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	response.Created(c, dto.PurchaseResponse{
		Order:        result.Order,
		DeliveryCode: result.DeliveryCode,
		Transaction:  dto.ToTransactionResponse(result.Transaction),
	})
}

// ListOrders handles GET /api/v1/orders?role=buyer|seller.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var asSeller bool
	switch c.DefaultQuery("role", "buyer") {
	case "buyer":
	case "seller":
		asSeller = true
	default:
		response.Error(c, apperror.Validation("role must be buyer or seller"))
		return
	}

	orders, err := h.purchaseSvc.ListOrders(c.Request.Context(), userID, asSeller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, orders)
}

// Confirm handles POST /api/v1/orders/:id/confirm.
func (h *OrderHandler) Confirm(c *gin.Context) {
	sellerID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidDeliveryCode())
		return
	}

	order, err := h.purchaseSvc.ConfirmDelivery(c.Request.Context(), sellerID, orderID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order)
}

// PurchaseAd handles POST /api/v1/ads.
func (h *OrderHandler) PurchaseAd(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.AdPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	ad, err := h.purchaseSvc.PurchaseAd(c.Request.Context(), userID,
		uuid.MustParse(req.ProductID), uuid.MustParse(req.PackageID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ad)
}
