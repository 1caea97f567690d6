package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"algobank/backend/internal/config"
	"algobank/backend/internal/middleware"
	"algobank/backend/internal/models"
	"algobank/backend/internal/service"
	"algobank/backend/pkg/helpers"
)

type SupportHandler struct {
	ticketService *service.TicketService
	validator     *helpers.CustomValidator
	idGen         *helpers.IDGenerator
	uploads       config.UploadConfig
}

func NewSupportHandler(ticketService *service.TicketService, validator *helpers.CustomValidator, uploads config.UploadConfig) *SupportHandler {
	return &SupportHandler{
		ticketService: ticketService,
		validator:     validator,
		idGen:         helpers.NewIDGenerator(),
		uploads:       uploads,
	}
}

func (h *SupportHandler) RegisterRoutes(r *gin.RouterGroup, auth, admin gin.HandlerFunc) {
	g := r.Group("/support/tickets", auth)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id/messages", h.Messages)
	g.POST("/:id/messages", h.Reply)
	g.POST("/:id/attachments", h.Attach)
	g.PATCH("/:id/status", admin, h.UpdateStatus)
}

type createTicketRequest struct {
	Subject  string `json:"subject" validate:"required,min=3,max=200"`
	Message  string `json:"message" validate:"required,min=1,max=5000"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category string `json:"category" validate:"omitempty,oneof=general technical billing account"`
}

func (h *SupportHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), service.CreateTicketInput{
		UserID:   middleware.UserID(c),
		Subject:  req.Subject,
		Message:  req.Message,
		Priority: req.Priority,
		Category: req.Category,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticket": ticket})
}

// List returns the caller's tickets, or every ticket for admins. Admins may
// filter by ?status=.
func (h *SupportHandler) List(c *gin.Context) {
	if middleware.IsAdmin(c) {
		tickets, err := h.ticketService.ListAll(c.Request.Context(), c.Query("status"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tickets": tickets})
		return
	}

	tickets, err := h.ticketService.ListMine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (h *SupportHandler) Messages(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ticket, msgs, err := h.ticketService.Get(c.Request.Context(), id,
		middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticket":   ticket,
		"messages": msgs,
	})
}

type replyRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

func (h *SupportHandler) Reply(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req replyRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	msg, err := h.ticketService.Reply(c.Request.Context(), service.ReplyInput{
		TicketID: id,
		SenderID: middleware.UserID(c),
		Content:  req.Content,
		IsAgent:  middleware.IsAdmin(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Attach uploads a file and appends it to the thread as a new message.
func (h *SupportHandler) Attach(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "file is required"})
		return
	}
	if file.Size > h.uploads.MaxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"message": "file too large"})
		return
	}

	stored := h.idGen.GenerateUUID() + filepath.Ext(file.Filename)
	dest := filepath.Join(h.uploads.Dir, stored)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		respondError(c, err)
		return
	}

	content := c.PostForm("content")
	if content == "" {
		content = "Attachment: " + file.Filename
	}

	msg, err := h.ticketService.Reply(c.Request.Context(), service.ReplyInput{
		TicketID: id,
		SenderID: middleware.UserID(c),
		Content:  content,
		IsAgent:  middleware.IsAdmin(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	att := &models.SupportAttachment{
		MessageID: msg.ID,
		Filename:  file.Filename,
		Path:      dest,
		Mimetype:  file.Header.Get("Content-Type"),
	}
	if err := h.ticketService.Attach(c.Request.Context(), att); err != nil {
		respondError(c, err)
		return
	}
	msg.Attachments = append(msg.Attachments, *att)

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

type ticketStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

func (h *SupportHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ticketStatusRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	agentID := middleware.UserID(c)
	if err := h.ticketService.UpdateStatus(c.Request.Context(), id, req.Status, &agentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ticket status updated"})
}
