package handlers

import (
	"net/http"

	"dentaflow/services/calendar"
	"dentaflow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Provider calendar.Provider
}

func NewBookingHandler(provider calendar.Provider) *BookingHandler {
	return &BookingHandler{Provider: provider}
}

// GetBookingByPhone returns the caller's next upcoming appointment.
func (h *BookingHandler) GetBookingByPhone(c *gin.Context) {
	phone := c.Param("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
		return
	}

	booking, err := h.Provider.FindBookingByPhone(c.Request.Context(), phone)
	if err != nil {
		utils.GetLogger().Error("booking lookup failed", zap.String("phone", phone), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "calendar lookup failed"})
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no upcoming appointment"})
		return
	}
	c.JSON(http.StatusOK, booking)
}
