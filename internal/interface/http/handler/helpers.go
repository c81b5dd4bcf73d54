package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/grantwriter-backend/internal/http/middleware"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

func getUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.Unauthorized(c, "authorization required")
		return uuid.Nil, false
	}
	return userID, true
}

// resolveOwner сверяет ownerId из пути или тела с пользователем токена.
// Чужой ownerId выглядит как отсутствующая заявка.
func resolveOwner(c *gin.Context, claimed *uuid.UUID) (uuid.UUID, bool) {
	userID, ok := getUserID(c)
	if !ok {
		return uuid.Nil, false
	}
	if claimed != nil && *claimed != userID {
		response.Error(c, apperror.ErrProposalNotFound)
		return uuid.Nil, false
	}
	return userID, true
}

func ownerFromPath(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("ownerId")
	if raw == "" {
		return resolveOwner(c, nil)
	}
	ownerID, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "ownerId must be a valid UUID")
		return uuid.Nil, false
	}
	return resolveOwner(c, &ownerID)
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
