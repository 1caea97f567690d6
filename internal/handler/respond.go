package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"algobank/backend/internal/service"
)

// parseID reads a numeric path parameter, rejecting the request itself on
// garbage input.
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses with the uniform
// {"message": ...} body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrEmailNotVerified),
		errors.Is(err, service.ErrNotTicketOwner):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTransactionNotFound),
		errors.Is(err, service.ErrWithdrawalNotFound),
		errors.Is(err, service.ErrWalletNotFound),
		errors.Is(err, service.ErrTicketNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrReferralNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrInvalidReferralCode),
		errors.Is(err, service.ErrAmountTooSmall),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrInsufficientGains),
		errors.Is(err, service.ErrDepositNotPending),
		errors.Is(err, service.ErrWithdrawalNotPending),
		errors.Is(err, service.ErrAddressRequired),
		errors.Is(err, service.ErrUnsupportedMethod),
		errors.Is(err, service.ErrTicketClosed):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		// Surface the cause in the request log, not the response body.
		_ = c.Error(err)
		c.JSON(status, gin.H{"message": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}
