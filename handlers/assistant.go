package handlers

import (
	"net/http"
	"strings"
	"time"

	"dentaflow/services/assistant"
	"dentaflow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageRequest is the inbound conversation turn.
type MessageRequest struct {
	ConversationID string `json:"conversationId"`
	Phone          string `json:"phone" binding:"required"`
	Text           string `json:"text" binding:"required"`
}

// MessageResponse carries the assistant's reply.
type MessageResponse struct {
	ConversationID string `json:"conversationId"`
	Reply          string `json:"reply"`
}

type AssistantHandler struct {
	Svc *assistant.Service
}

func NewAssistantHandler(svc *assistant.Service) *AssistantHandler {
	return &AssistantHandler{Svc: svc}
}

// HandleMessage processes one patient message and returns the reply.
func (h *AssistantHandler) HandleMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone and text are required"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text must not be empty"})
		return
	}
	// A conversation defaults to one per phone number.
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = req.Phone
	}

	reply, err := h.Svc.HandleMessage(c.Request.Context(), conversationID, req.Phone, req.Text, time.Now())
	if err != nil {
		utils.GetLogger().Error("turn failed", zap.String("conversation", conversationID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{ConversationID: conversationID, Reply: reply})
}
