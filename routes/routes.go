package routes

import (
	"time"

	"dentaflow/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle collects the handlers the route table wires up.
type HandlerBundle struct {
	Assistant *handlers.AssistantHandler
	Booking   *handlers.BookingHandler
}

// RegisterRoutes wires every endpoint onto the router.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.POST("/assistant/message", hb.Assistant.HandleMessage)
		api.GET("/bookings/:phone", hb.Booking.GetBookingByPhone)
	}

	r.GET("/health", handlers.HealthHandler)
}
