package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"algobank/backend/internal/middleware"
	"algobank/backend/internal/service"
)

type ReferralHandler struct {
	referralService *service.ReferralService
}

func NewReferralHandler(referralService *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

func (h *ReferralHandler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	g := r.Group("/referral", auth)
	g.GET("/code", h.Code)
	g.GET("/my-referrals", h.MyReferrals)
	g.GET("/tree", h.Tree)
}

func (h *ReferralHandler) Code(c *gin.Context) {
	code, err := h.referralService.Code(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}

func (h *ReferralHandler) MyReferrals(c *gin.Context) {
	refs, stats, err := h.referralService.MyReferrals(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referrals": refs,
		"stats":     stats,
	})
}

func (h *ReferralHandler) Tree(c *gin.Context) {
	tree, err := h.referralService.Tree(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tree": tree})
}
