package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lodgekeeper-backend/config"
	"lodgekeeper-backend/controllers"
	"lodgekeeper-backend/routes"
	"lodgekeeper-backend/services"
	"lodgekeeper-backend/utils"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	// Connect database (config.ConnectDatabase should set config.DB)
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	db := config.DB
	if db == nil {
		log.Fatal("❌ config.DB is nil after ConnectDatabase()")
	}
	log.Println("✅ Database connection established and migrations applied")

	// Initialize services
	inventoryService := services.NewInventoryService(db)
	availabilityService := services.NewAvailabilityService(db)
	documentGenerator := services.NewLocalDocumentGenerator()
	kycVerifier := services.NewGuestRecordVerifier(db)
	bookingService := services.NewBookingService(db, inventoryService, availabilityService, documentGenerator, kycVerifier)
	gateway := services.NewHTTPPaymentGateway()
	transactionService := services.NewTransactionService(db, gateway, bookingService)
	refundService := services.NewRefundService(db)
	roomService := services.NewRoomService(db)
	roomTypeService := services.NewRoomTypeService(db)
	customerService := services.NewCustomerService(db)

	// Initialize controllers
	availabilityController := controllers.NewAvailabilityController(availabilityService)
	bookingController := controllers.NewBookingController(bookingService)
	paymentController := controllers.NewPaymentController(transactionService)
	refundController := controllers.NewRefundController(refundService)
	roomController := controllers.NewRoomController(roomService, roomTypeService, inventoryService)
	customerController := controllers.NewCustomerController(customerService)

	// Build router
	router := routes.SetupRouter(
		availabilityController,
		bookingController,
		paymentController,
		refundController,
		roomController,
		customerController,
	)

	// Port from env (prefer), fallback to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
		// useful timeouts
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
