package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	action   domain.AuditAction
	resource string
	param    string // path parameter carrying the resource id
}

// Keys are "METHOD route-template" as reported by gin's FullPath.
var auditRoutes = map[string]auditRoute{
	"POST /api/v1/auth/register":                    {domain.AuditActionRegister, "user", ""},
	"POST /api/v1/auth/login":                       {domain.AuditActionLogin, "session", ""},
	"POST /api/v1/rewards/claim":                    {domain.AuditActionRewardClaim, "reward_claim", ""},
	"POST /api/v1/orders":                           {domain.AuditActionPurchase, "order", ""},
	"POST /api/v1/orders/:id/confirm":               {domain.AuditActionConfirm, "order", "id"},
	"POST /api/v1/ads":                              {domain.AuditActionAdPurchase, "product_ad", ""},
	"POST /api/v1/admin/rewards/events":             {domain.AuditActionRewardCreate, "reward_event", ""},
	"PATCH /api/v1/admin/rewards/events/:id/status": {domain.AuditActionRewardToggle, "reward_event", "id"},
	"DELETE /api/v1/admin/rewards/events/:id":       {domain.AuditActionRewardDelete, "reward_event", "id"},
	"POST /api/v1/admin/mint/semester":              {domain.AuditActionMint, "treasury", ""},
	"POST /api/v1/admin/mint/manual":                {domain.AuditActionMint, "treasury", ""},
	"POST /api/v1/admin/grants":                     {domain.AuditActionGrant, "wallet", ""},
	"GET /api/v1/admin/ledger/verify":               {domain.AuditActionChainVerified, "ledger", ""},
}

// AuditLog records successful value-moving and admin requests.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		route, ok := lookupAuditRoute(c.Request.Method, c.FullPath())
		if !ok {
			return
		}

		var actorID *uuid.UUID
		if id, ok := UserID(c); ok {
			actorID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(CtxRequestID),
		})

		entry := &domain.AuditLog{
			ID:           uuid.New(),
			ActorID:      actorID,
			Action:       route.action,
			ResourceType: route.resource,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		}
		if route.param != "" {
			entry.ResourceID = c.Param(route.param)
		}
		auditSvc.Log(c.Request.Context(), entry)
	}
}

func lookupAuditRoute(method, fullPath string) (auditRoute, bool) {
	if fullPath == "" {
		return auditRoute{}, false
	}
	if method == http.MethodHead || method == http.MethodOptions {
		return auditRoute{}, false
	}
	r, ok := auditRoutes[method+" "+fullPath]
	return r, ok
}
