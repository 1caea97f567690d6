package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
	"algobank/backend/internal/service"
	"algobank/backend/pkg/helpers"
)

type AdminHandler struct {
	ledgerService   *service.LedgerService
	referralService *service.ReferralService
	validator       *helpers.CustomValidator
}

func NewAdminHandler(ledgerService *service.LedgerService, referralService *service.ReferralService, validator *helpers.CustomValidator) *AdminHandler {
	return &AdminHandler{
		ledgerService:   ledgerService,
		referralService: referralService,
		validator:       validator,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, auth, admin gin.HandlerFunc) {
	g := r.Group("/admin", auth, admin)
	g.GET("/stats", h.Stats)
	g.GET("/users", h.Users)
	g.DELETE("/users/:id", h.DeleteUser)
	g.GET("/users/:id/referrals", h.UserReferrals)
	g.GET("/wallets", h.Wallets)
	g.GET("/transactions", h.Transactions)
	g.PATCH("/transactions/:id", h.UpdateTransaction)
	g.GET("/withdrawals", h.Withdrawals)
	g.PATCH("/withdrawals/:id/approve", h.ApproveWithdrawal)
	g.GET("/referrals", h.Referrals)
	g.PATCH("/referrals/:id/status", h.UpdateReferralStatus)
	g.GET("/referral-settings", h.ReferralSettings)
	g.PATCH("/referral-settings", h.UpdateReferralSetting)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.ledgerService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.ledgerService.Users(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	public := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	c.JSON(http.StatusOK, gin.H{"users": public})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.ledgerService.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *AdminHandler) UserReferrals(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	refs, stats, err := h.referralService.MyReferrals(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referrals": refs,
		"stats":     stats,
	})
}

func (h *AdminHandler) Wallets(c *gin.Context) {
	wallets, err := h.ledgerService.Wallets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

func (h *AdminHandler) Transactions(c *gin.Context) {
	txns, err := h.ledgerService.AllTransactions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

type transactionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed failed"`
	TxHash string `json:"txHash" validate:"omitempty,tx_hash"`
}

// UpdateTransaction overrides a pending deposit's status. Completing credits
// the wallet and may trigger the first-deposit referral chain.
func (h *AdminHandler) UpdateTransaction(c *gin.Context) {
	id := c.Param("id")

	var req transactionStatusRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	if req.Status == models.TransactionStatusCompleted {
		txn, err := h.ledgerService.CompleteDeposit(c.Request.Context(), id, req.TxHash)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": txn})
		return
	}

	if err := h.ledgerService.FailDeposit(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction marked failed"})
}

func (h *AdminHandler) Withdrawals(c *gin.Context) {
	items, err := h.ledgerService.AllWithdrawals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": items})
}

type approveWithdrawalRequest struct {
	TxHash string `json:"txHash" validate:"omitempty,tx_hash"`
}

func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req approveWithdrawalRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	if err := h.ledgerService.ApproveWithdrawal(c.Request.Context(), id, req.TxHash); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal approved"})
}

func (h *AdminHandler) Referrals(c *gin.Context) {
	refs, err := h.referralService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": refs})
}

type referralStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed inactive"`
}

func (h *AdminHandler) UpdateReferralStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req referralStatusRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	if err := h.referralService.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "referral status updated"})
}

func (h *AdminHandler) ReferralSettings(c *gin.Context) {
	settings, err := h.referralService.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

type referralSettingRequest struct {
	Level            int             `json:"level" validate:"required,min=1,max=3"`
	CommissionRate   decimal.Decimal `json:"commissionRate" validate:"required"`
	MinDepositAmount decimal.Decimal `json:"minDepositAmount"`
}

func (h *AdminHandler) UpdateReferralSetting(c *gin.Context) {
	var req referralSettingRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	err := h.referralService.UpdateSetting(c.Request.Context(), req.Level,
		req.CommissionRate, req.MinDepositAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "referral setting updated"})
}
