package handler

import (
	"booking-app/internal/models"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses. Everything except
// store unavailability is a deterministic outcome surfaced verbatim.
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "fields": validationErr.Fields})
	case errors.Is(err, models.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, models.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a party to this booking"})
	case errors.Is(err, models.ErrChatLocked):
		c.JSON(http.StatusLocked, gin.H{"error": "Chat is locked for completed bookings"})
	case errors.Is(err, models.ErrStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, try again later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
