package controllers

import (
	"log"
	"net/http"

	"healthbot/services"
	"healthbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatController feeds inbound chat events into the conversation engine.
// Every handler wraps the websocket transport in a recorder so the HTTP
// response carries the messages produced during the turn.
type ChatController struct {
	Conv *services.Conversation
	Base services.Transport
}

func NewChatController(conv *services.Conversation, base services.Transport) *ChatController {
	return &ChatController{Conv: conv, Base: base}
}

// POST /chat/command  { "command": "/start" }
func (cc *ChatController) PostCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cc.run(c, func(t services.Transport, userID uint) error {
		return cc.Conv.HandleCommand(c.Request.Context(), t, userID, req.Command)
	})
}

// POST /chat/callback  { "data": "edit_weight" }
func (cc *ChatController) PostCallback(c *gin.Context) {
	var req struct {
		Data string `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cc.run(c, func(t services.Transport, userID uint) error {
		return cc.Conv.HandleCallback(c.Request.Context(), t, userID, req.Data)
	})
}

// POST /chat/message  { "text": "75", "message_id": "..." }
func (cc *ChatController) PostMessage(c *gin.Context) {
	var req struct {
		Text      string `json:"text" binding:"required"`
		MessageID string `json:"message_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MessageID == "" {
		req.MessageID = uuid.NewString()
	}

	cc.run(c, func(t services.Transport, userID uint) error {
		return cc.Conv.HandleText(c.Request.Context(), t, userID, req.MessageID, req.Text)
	})
}

// POST /chat/photo  { "image_base64": "data:image/jpeg;base64,..." }
func (cc *ChatController) PostPhoto(c *gin.Context) {
	var req struct {
		ImageBase64 string `json:"image_base64" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	userID := c.GetUint("userID")
	go func() {
		if _, err := utils.ArchiveFoodPhoto(req.ImageBase64, userID); err != nil {
			log.Printf("photo archive failed for user %d: %v", userID, err)
		}
	}()

	cc.run(c, func(t services.Transport, userID uint) error {
		return cc.Conv.HandlePhoto(c.Request.Context(), t, userID, req.ImageBase64)
	})
}

func (cc *ChatController) run(c *gin.Context, handle func(services.Transport, uint) error) {
	userID := c.GetUint("userID")
	rec := services.NewRecordingTransport(cc.Base)

	if err := handle(rec, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": rec.Log})
}
