package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"lodgekeeper-backend/controllers"
	"lodgekeeper-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func SetupRouter(
	ac *controllers.AvailabilityController,
	bc *controllers.BookingController,
	pc *controllers.PaymentController,
	rfc *controllers.RefundController,
	rc *controllers.RoomController,
	cc *controllers.CustomerController,
) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/availability", ac.CheckAvailability)

		bookings := api.Group("/bookings")
		{
			bookings.GET("", bc.GetBookings)
			bookings.POST("", bc.CreateBooking)
			bookings.GET("/:id", bc.GetBookingDetails)
			bookings.POST("/:id/confirm", bc.ConfirmBooking)
			bookings.POST("/:id/checkin", bc.CheckInBooking)
			bookings.POST("/:id/checkout", bc.CheckOutBooking)
			bookings.POST("/:id/cancel", bc.CancelBooking)
			bookings.POST("/:id/modify", bc.ModifyBooking)
		}

		payments := api.Group("/payments")
		{
			payments.POST("", pc.InitiatePayment)
			payments.POST("/webhook", pc.Webhook)
			payments.GET("/:id", pc.GetTransaction)
			payments.POST("/:id/poll", pc.PollTransaction)
			payments.POST("/:id/proof", pc.AttachProof)
			payments.POST("/:id/verify", pc.VerifyTransaction)
			payments.POST("/:id/lock", pc.LockTransaction)
			payments.GET("/:id/refunds", rfc.GetRefundsAgainst)
		}

		api.POST("/refunds", rfc.InitiateRefund)

		rooms := api.Group("/rooms")
		{
			rooms.GET("", rc.GetRooms)
			rooms.POST("", rc.CreateRoom)
			rooms.GET("/:id", rc.GetRoom)
			rooms.PUT("/:id", rc.UpdateRoom)
			rooms.PATCH("/:id", rc.UpdateRoom)
			rooms.POST("/:id/block", rc.BlockSlot)
			rooms.POST("/:id/unblock", rc.UnblockSlot)
		}

		roomTypes := api.Group("/room-types")
		{
			roomTypes.GET("", rc.GetRoomTypes)
			roomTypes.POST("", rc.CreateRoomType)
		}

		customers := api.Group("/customers")
		{
			customers.POST("", cc.CreateCustomer)
			customers.GET("/:id", cc.GetCustomer)
		}
	}

	return r
}
