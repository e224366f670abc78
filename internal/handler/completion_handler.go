package handler

import (
	"booking-app/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CompletionHandler struct {
	service services.CompletionService
}

func NewCompletionHandler(service services.CompletionService) *CompletionHandler {
	return &CompletionHandler{service: service}
}

// SubmitCompletion records the caller's completion evidence. The party role
// is derived from the session identity, never from the request body.
func (h *CompletionHandler) SubmitCompletion(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}
	var input services.CompletionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result, err := h.service.SubmitCompletion(c.Request.Context(), id, c.GetString("userId"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCompletionStatus is side-effect free and safe for the client to poll.
func (h *CompletionHandler) GetCompletionStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}
	status, err := h.service.CompletionStatus(c.Request.Context(), id, c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
