package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"algobank/backend/internal/middleware"
	"algobank/backend/internal/service"
	"algobank/backend/pkg/helpers"
)

type WalletHandler struct {
	ledgerService *service.LedgerService
	validator     *helpers.CustomValidator
}

func NewWalletHandler(ledgerService *service.LedgerService, validator *helpers.CustomValidator) *WalletHandler {
	return &WalletHandler{ledgerService: ledgerService, validator: validator}
}

func (h *WalletHandler) RegisterRoutes(r *gin.RouterGroup, auth, admin gin.HandlerFunc) {
	w := r.Group("/wallet", auth)
	w.GET("/balance", h.Balance)
	w.POST("/update-gains", h.UpdateGains)
	w.POST("/deposit", h.Deposit)
	w.POST("/deposit/confirm", h.ConfirmDeposit)
	w.POST("/deposit/complete", admin, h.CompleteDeposit)
	w.POST("/withdraw", h.Withdraw)
	w.POST("/withdraw/reject/:id", admin, h.RejectWithdrawal)
	w.GET("/withdrawals", h.Withdrawals)
	w.GET("/transactions", h.Transactions)
	w.POST("/invest", h.Invest)
	w.GET("/investments", h.Investments)
}

func (h *WalletHandler) Balance(c *gin.Context) {
	summary, err := h.ledgerService.Balance(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *WalletHandler) UpdateGains(c *gin.Context) {
	gains, err := h.ledgerService.RecalculateGains(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"gains":              gains.Amount,
		"pendingWithdrawals": gains.PendingWithdrawals,
	})
}

type depositRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,oneof=bitcoin usdt"`
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	var req depositRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	txn, err := h.ledgerService.Deposit(c.Request.Context(), service.DepositInput{
		UserID:        middleware.UserID(c),
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

type confirmDepositRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	TxHash        string `json:"txHash" validate:"required,tx_hash"`
}

func (h *WalletHandler) ConfirmDeposit(c *gin.Context) {
	var req confirmDepositRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	txn, err := h.ledgerService.ConfirmDeposit(c.Request.Context(),
		middleware.UserID(c), req.TransactionID, req.TxHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

type completeDepositRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	TxHash        string `json:"txHash" validate:"omitempty,tx_hash"`
}

func (h *WalletHandler) CompleteDeposit(c *gin.Context) {
	var req completeDepositRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	txn, err := h.ledgerService.CompleteDeposit(c.Request.Context(), req.TransactionID, req.TxHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

func (h *WalletHandler) RejectWithdrawal(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.ledgerService.RejectWithdrawal(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal rejected"})
}

type withdrawRequest struct {
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod  string          `json:"paymentMethod" validate:"required,oneof=bitcoin usdt"`
	BitcoinAddress string          `json:"bitcoinAddress" validate:"required_if=PaymentMethod bitcoin,btc_address"`
	USDTAddress    string          `json:"usdtAddress" validate:"required_if=PaymentMethod usdt,trc20_address"`
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req withdrawRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	withdrawal, err := h.ledgerService.RequestWithdrawal(c.Request.Context(), service.WithdrawalInput{
		UserID:         middleware.UserID(c),
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		BitcoinAddress: req.BitcoinAddress,
		USDTAddress:    req.USDTAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"withdrawal": withdrawal})
}

func (h *WalletHandler) Withdrawals(c *gin.Context) {
	items, err := h.ledgerService.Withdrawals(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": items})
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	items, err := h.ledgerService.Transactions(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items})
}

type investRequest struct {
	ProductID string          `json:"productId" validate:"required,max=64"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
}

func (h *WalletHandler) Invest(c *gin.Context) {
	var req investRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	inv, err := h.ledgerService.Invest(c.Request.Context(), service.InvestInput{
		UserID:    middleware.UserID(c),
		ProductID: req.ProductID,
		Amount:    req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"investment": inv})
}

func (h *WalletHandler) Investments(c *gin.Context) {
	items, err := h.ledgerService.Investments(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investments": items})
}
