package handler

import (
	"campus-ledger/internal/adapter/http/dto"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler serves the caller's wallet and coin views.
type WalletHandler struct {
	reportingSvc ports.ReportingService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(reportingSvc ports.ReportingService) *WalletHandler {
	return &WalletHandler{reportingSvc: reportingSvc}
}

// GetWallet handles GET /api/v1/wallet.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.reportingSvc.WalletSummary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// ListCoins handles GET /api/v1/wallet/coins.
func (h *WalletHandler) ListCoins(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 50, 1, 500)
	coins, err := h.reportingSvc.ListCoins(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, coins, limit, 0, len(coins))
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 20, 1, 100)
	offset := queryInt(c, "offset", 0, 0, 1<<20)

	txns, err := h.reportingSvc.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToTransactionList(txns), limit, offset, len(txns))
}

// CoinHistory handles GET /api/v1/coins/:id/history.
func (h *WalletHandler) CoinHistory(c *gin.Context) {
	coinID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	history, err := h.reportingSvc.CoinHistory(c.Request.Context(), coinID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, history)
}
