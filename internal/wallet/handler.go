package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"africoin/internal/api"
	"africoin/internal/auth"
	"africoin/internal/logger"
	"africoin/internal/metrics"
)

type Handler struct {
	svc       Service
	jwtSecret string
}

func NewHandler(svc Service, jwtSecret string) *Handler {
	return &Handler{svc: svc, jwtSecret: jwtSecret}
}

type OnboardRequest struct {
	Phone string `json:"phone" binding:"required"`
	Name  string `json:"name" binding:"required,min=2,max=50"`
	Pin   string `json:"pin" binding:"required,numeric,min=4,max=6"`
}

type TransferRequest struct {
	Sender          string `json:"sender" binding:"required"`
	Recipient       string `json:"recipient" binding:"required"`
	Amount          string `json:"amount" binding:"required"`
	Pin             string `json:"pin" binding:"required"`
	TransactionHash string `json:"transaction_hash"`
}

type TopUpRequest struct {
	Account string `json:"account" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

type LoginRequest struct {
	Phone string `json:"phone" binding:"required"`
	Pin   string `json:"pin" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Onboard godoc
// @Summary      Create a wallet
// @Description  Onboards a phone number with a display name and PIN.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      OnboardRequest  true  "Onboarding data"
// @Success      201      {object}  api.Envelope
// @Failure      400      {object}  api.Envelope
// @Failure      409      {object}  api.Envelope
// @Router       /onboard [post]
func (h *Handler) Onboard(c *gin.Context) {
	var req OnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("INVALID_INPUT", err.Error()))
		return
	}

	result, err := h.svc.CreateAccount(c.Request.Context(), req.Phone, req.Name, req.Pin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	metrics.RecordOnboard()
	c.JSON(http.StatusCreated, api.OK(gin.H{
		"id_hash":        result.IDHash,
		"wallet_address": result.WalletAddress,
		"message":        "Wallet created successfully",
	}))
}

// GetBalance godoc
// @Summary      Get balance
// @Tags         wallet
// @Produce      json
// @Param        idHash  path      string  true  "Account key"
// @Success      200     {object}  api.Envelope
// @Failure      404     {object}  api.Envelope
// @Router       /balance/{idHash} [get]
func (h *Handler) GetBalance(c *gin.Context) {
	result, err := h.svc.GetBalance(c.Request.Context(), c.Param("idHash"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.OK(result))
}

// Transfer godoc
// @Summary      Transfer value between wallets
// @Description  Sender and recipient may be phone numbers or account keys. The sender PIN authorizes the movement.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      TransferRequest  true  "Transfer data"
// @Success      200      {object}  api.Envelope
// @Failure      400      {object}  api.Envelope
// @Failure      401      {object}  api.Envelope
// @Failure      404      {object}  api.Envelope
// @Failure      409      {object}  api.Envelope
// @Router       /transfer [post]
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("INVALID_INPUT", err.Error()))
		return
	}

	senderIDHash, err := h.svc.ResolveIDHash(req.Sender)
	if err != nil {
		h.respondError(c, err)
		return
	}
	recipientIDHash, err := h.svc.ResolveIDHash(req.Recipient)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.svc.VerifyPin(c.Request.Context(), senderIDHash, req.Pin); err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.svc.Transfer(c.Request.Context(), senderIDHash, recipientIDHash, req.Amount, req.TransactionHash)
	if err != nil {
		h.respondError(c, err)
		return
	}

	metrics.RecordTransfer()
	c.JSON(http.StatusOK, api.OK(result))
}

// TopUp godoc
// @Summary      Top up a wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      TopUpRequest  true  "Top-up data"
// @Success      200      {object}  api.Envelope
// @Failure      400      {object}  api.Envelope
// @Failure      404      {object}  api.Envelope
// @Router       /topup [post]
func (h *Handler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("INVALID_INPUT", err.Error()))
		return
	}

	idHash, err := h.svc.ResolveIDHash(req.Account)
	if err != nil {
		h.respondError(c, err)
		return
	}

	newBalance, err := h.svc.TopUp(c.Request.Context(), idHash, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	metrics.RecordTopUp()
	c.JSON(http.StatusOK, api.OK(gin.H{"new_balance": newBalance}))
}

// Login godoc
// @Summary      Authenticate with phone and PIN
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Credentials"
// @Success      200      {object}  api.Envelope
// @Failure      401      {object}  api.Envelope
// @Failure      404      {object}  api.Envelope
// @Router       /login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("INVALID_INPUT", err.Error()))
		return
	}

	idHash, err := h.svc.ResolveIDHash(req.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.svc.VerifyPin(c.Request.Context(), idHash, req.Pin); err != nil {
		h.respondError(c, err)
		return
	}

	accessToken, refreshToken, err := auth.GenerateTokens(idHash, h.jwtSecret)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.OK(gin.H{
		"id_hash":       idHash,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	}))
}

// Refresh godoc
// @Summary      Refresh access token
// @Description  Returns a new access token using a valid refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  true  "Refresh token payload"
// @Success      200      {object}  api.Envelope
// @Failure      400      {object}  api.Envelope
// @Failure      401      {object}  api.Envelope
// @Failure      404      {object}  api.Envelope
// @Router       /refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("INVALID_INPUT", err.Error()))
		return
	}

	accessToken, claims, err := auth.RefreshAccessToken(req.RefreshToken, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, api.Fail("INVALID_TOKEN", "invalid or expired refresh token"))
		return
	}

	// The account may have been removed since the token was issued.
	if _, err := h.svc.GetBalance(c.Request.Context(), claims.IDHash); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.OK(gin.H{
		"id_hash":      claims.IDHash,
		"access_token": accessToken,
	}))
}

// History godoc
// @Summary      List transactions for the authenticated wallet
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.Envelope
// @Failure      401  {object}  api.Envelope
// @Router       /transactions [get]
func (h *Handler) History(c *gin.Context) {
	idHash, ok := auth.GetIDHash(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.Fail("UNAUTHORIZED", "wallet not authenticated"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.svc.History(c.Request.Context(), idHash, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.OK(txs))
}

// respondError maps engine outcomes to HTTP codes. Anything unrecognized is
// an infrastructure fault: logged with its cause, returned as a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidPhone):
		c.JSON(http.StatusBadRequest, api.Fail("INVALID_PHONE", "phone number is not valid"))
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, api.Fail("INVALID_AMOUNT", "amount must be a positive integer string"))
	case errors.Is(err, ErrSelfTransfer):
		c.JSON(http.StatusBadRequest, api.Fail("INVALID_OPERATION", "sender and recipient must differ"))
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, api.Fail("INVALID_CREDENTIALS", "invalid pin"))
	case errors.Is(err, ErrAccountNotFound):
		c.JSON(http.StatusNotFound, api.Fail("ACCOUNT_NOT_FOUND", "account not found"))
	case errors.Is(err, ErrAccountExists):
		c.JSON(http.StatusConflict, api.Fail("ACCOUNT_EXISTS", "phone number already onboarded"))
	case errors.Is(err, ErrInsufficientBalance):
		c.JSON(http.StatusConflict, api.Fail("INSUFFICIENT_BALANCE", "insufficient balance"))
	case errors.Is(err, ErrDuplicateTransaction):
		c.JSON(http.StatusConflict, api.Fail("DUPLICATE_TRANSACTION", "transaction already recorded"))
	default:
		logger.Error("internal error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, api.Fail("INTERNAL_ERROR", "something went wrong"))
	}
}
