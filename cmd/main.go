package main

import (
	"booking-app/internal/config"
	"booking-app/internal/handler"
	"booking-app/internal/repository"
	"booking-app/internal/services"
	"booking-app/internal/utils"
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	baseCtx := context.Background()
	ctx, shutdownManager := utils.NewShutdownManager(baseCtx)
	shutdownManager.StartListening()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	mongoClient, err := utils.NewMongoDBConnection(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	db := mongoClient.Database(cfg.MongoDB)

	shutdownManager.OnShutdown("MongoDB connection", func(ctx context.Context) error {
		return mongoClient.Disconnect(ctx)
	})

	rdb, err := utils.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	shutdownManager.OnShutdown("Redis connection", func(ctx context.Context) error {
		return rdb.Close()
	})

	bookingRepo := repository.NewBookingRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// Unique indexes back the one-record-per-(booking,role) and
	// one-review-per-reviewer invariants; the service layer relies on them.
	if err := completionRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to ensure completion indexes:", err)
	}
	if err := reviewRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to ensure review indexes:", err)
	}

	events := services.NewEventPublisher(rdb)
	bookingService := services.NewBookingService(bookingRepo, rdb, events)
	completionService := services.NewCompletionService(bookingRepo, completionRepo, reviewRepo, bookingService, rdb, events)
	reviewService := services.NewReviewService(bookingRepo, reviewRepo, events)
	chatService := services.NewChatService(bookingRepo, chatRepo, events)

	bookingHandler := handler.NewBookingHandler(bookingService)
	completionHandler := handler.NewCompletionHandler(completionService)
	reviewHandler := handler.NewReviewHandler(reviewService, rdb)
	chatHandler := handler.NewChatHandler(chatService)

	cacheRefresher := services.NewCacheRefresher(reviewService, rdb)
	cacheRefresher.Start(ctx)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8001"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(utils.AuthMiddleware(cfg.JWTSecret))
	bookings := router.Group("/api/bookings")
	{
		bookings.POST("/", bookingHandler.CreateBooking)
		bookings.GET("/my", bookingHandler.GetMyBookings)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.PUT("/:id/start", bookingHandler.StartWork)
		bookings.PUT("/:id/cancel", bookingHandler.CancelBooking)
		bookings.PUT("/:id/dispute", bookingHandler.DisputeBooking)

		bookings.POST("/:id/completion", completionHandler.SubmitCompletion)
		bookings.GET("/:id/completion", completionHandler.GetCompletionStatus)

		bookings.POST("/:id/reviews", reviewHandler.SubmitReview)

		bookings.POST("/:id/messages", chatHandler.SendMessage)
		bookings.GET("/:id/messages", chatHandler.GetMessages)
	}

	router.GET("/api/users/:id/reviews", reviewHandler.GetReviewsByUser)

	protected := router.Group("/api/reviews")
	protected.Use(utils.RequireRoles("manager", "admin"))
	{
		protected.GET("/statistics", reviewHandler.GetStatistics)
	}

	server := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Booking service running on %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Registered last so it is the first hook to run on shutdown.
	shutdownManager.OnShutdown("HTTP server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	shutdownManager.Wait()
}
