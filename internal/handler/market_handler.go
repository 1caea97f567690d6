package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"algobank/backend/internal/service"
)

type MarketHandler struct {
	marketService *service.MarketService
}

func NewMarketHandler(marketService *service.MarketService) *MarketHandler {
	return &MarketHandler{marketService: marketService}
}

func (h *MarketHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/market")
	g.GET("/bitcoin-price", h.BitcoinPrice)
	g.GET("/bitcoin-history", h.BitcoinHistory)
}

func (h *MarketHandler) BitcoinPrice(c *gin.Context) {
	price := h.marketService.BTCPrice(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"symbol": "BTC-USD",
		"price":  price,
	})
}

func (h *MarketHandler) BitcoinHistory(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid days"})
			return
		}
		days = parsed
	}

	points, err := h.marketService.BTCHistory(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "price history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": points})
}
