package handler

import (
	"booking-app/internal/models"
	"booking-app/internal/services"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewHandler struct {
	service services.ReviewService
	rdb     *redis.Client
}

func NewReviewHandler(service services.ReviewService, rdb *redis.Client) *ReviewHandler {
	return &ReviewHandler{service: service, rdb: rdb}
}

func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}
	var input services.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	review, err := h.service.SubmitReview(c.Request.Context(), id, c.GetString("userId"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.rdb.Del(c.Request.Context(), services.StatisticsCacheKey)
	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) GetReviewsByUser(c *gin.Context) {
	targetID := c.Param("id")
	reviews, err := h.service.ReviewsForUser(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) GetStatistics(c *gin.Context) {
	ctx := c.Request.Context()

	val, err := h.rdb.Get(ctx, services.StatisticsCacheKey).Result()
	if err == nil {
		var cached []models.ReviewStat
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	stats, err := h.service.Statistics(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	data, _ := json.Marshal(stats)
	_ = h.rdb.Set(ctx, services.StatisticsCacheKey, data, 10*time.Minute).Err()
	c.JSON(http.StatusOK, stats)
}
