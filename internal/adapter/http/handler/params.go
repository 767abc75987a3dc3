package handler

import (
	"strconv"

	"campus-ledger/internal/adapter/http/middleware"
	"campus-ledger/pkg/apperror"
	"campus-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser writes 401 and returns false when the request is anonymous.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	return id, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads a bounded integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def, lo, hi int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < lo || v > hi {
		return def
	}
	return v
}
