package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huddle-im/huddle/internal/roster"
	"github.com/huddle-im/huddle/internal/session"
)

// SessionHandler exposes the single demo session over HTTP. Every mutation
// maps onto one session operation; the response carries the outcome plus
// whatever the client needs to render without refetching the snapshot.
type SessionHandler struct {
	session *session.Session
}

func NewSessionHandler(s *session.Session) *SessionHandler {
	return &SessionHandler{session: s}
}

// Register mounts all session routes under the given router group.
func (h *SessionHandler) Register(api gin.IRouter) {
	api.GET("/session", h.GetSession)
	api.GET("/me", h.GetMe)
	api.GET("/users", h.GetUsers)
	api.GET("/messages", h.GetMessages)
	api.GET("/options", h.GetOptions)

	api.POST("/status", h.SetStatus)
	api.POST("/status/picker", h.ToggleStatusPicker)

	api.POST("/chat/select", h.SelectChat)
	api.POST("/chat/close", h.CloseChat)

	api.PUT("/draft", h.UpdateDraft)
	api.POST("/messages", h.SendMessage)
	api.POST("/messages/:id/reactions", h.ToggleReaction)
	api.POST("/messages/:id/picker", h.OpenEmojiPicker)
	api.DELETE("/messages/picker", h.CloseEmojiPicker)
}

// GetSession returns the full render snapshot.
func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Snapshot())
}

func (h *SessionHandler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.CurrentUser())
}

// GetUsers returns the roster in display order, current user excluded.
func (h *SessionHandler) GetUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.session.OrderedUsers()})
}

func (h *SessionHandler) GetMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.session.Messages()})
}

func (h *SessionHandler) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status_options": h.session.StatusOptions(),
		"emoji_options":  h.session.EmojiOptions(),
	})
}

// SetStatus updates the current user's status and optional status message.
func (h *SessionHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status  string `json:"status" binding:"required"`
		Message string `json:"message"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
		return
	}

	status := roster.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	h.session.SetStatus(status, req.Message)
	c.JSON(http.StatusOK, gin.H{"user": h.session.CurrentUser()})
}

func (h *SessionHandler) ToggleStatusPicker(c *gin.Context) {
	open := h.session.ToggleStatusPicker()
	c.JSON(http.StatusOK, gin.H{"open": open})
}

// SelectChat switches to the conversation view for one roster user.
func (h *SessionHandler) SelectChat(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	if !h.session.SelectChat(req.UserID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not selectable"})
		return
	}

	user, _ := h.session.SelectedUser()
	c.JSON(http.StatusOK, gin.H{"view": h.session.View(), "selected_user": user})
}

func (h *SessionHandler) CloseChat(c *gin.Context) {
	h.session.CloseChat()
	c.JSON(http.StatusOK, gin.H{"view": h.session.View()})
}

func (h *SessionHandler) UpdateDraft(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	h.session.UpdateDraft(req.Text)
	c.JSON(http.StatusOK, gin.H{"draft": h.session.Draft()})
}

// SendMessage appends a message from the current user. Whitespace-only text
// is rejected and the draft stays intact.
func (h *SessionHandler) SendMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, ok := h.session.SendMessage(req.Text)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "message text is empty"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ToggleReaction toggles the current user's emoji reaction on a message.
func (h *SessionHandler) ToggleReaction(c *gin.Context) {
	messageID := c.Param("id")

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji required"})
		return
	}

	if !h.session.AllowsEmoji(req.Emoji) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji not offered"})
		return
	}

	if !h.session.ToggleReaction(messageID, req.Emoji) {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "toggled"})
}

func (h *SessionHandler) OpenEmojiPicker(c *gin.Context) {
	messageID := c.Param("id")

	if !h.session.OpenEmojiPicker(messageID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"open_for": messageID})
}

func (h *SessionHandler) CloseEmojiPicker(c *gin.Context) {
	h.session.CloseEmojiPicker()
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}
