package http

import (
	"errors"
	"net/http"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgAuthFailed         = "authentication failed"
	msgInvalidRequest     = "invalid request"
	msgInvalidCredentials = "invalid credentials"
	msgUnavailable        = "service temporarily unavailable"
	msgInternal           = "internal error"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	wallet      *service.WalletAuth
	credentials *service.Credentials
	accounts    *service.Accounts
	logger      *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(
	authService *service.AuthService,
	wallet *service.WalletAuth,
	credentials *service.Credentials,
	accounts *service.Accounts,
	logger *zap.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		wallet:      wallet,
		credentials: credentials,
		accounts:    accounts,
		logger:      logger,
	}
}

// Message issues a sign-in challenge for the address query parameter
func (h *AuthHandlers) Message(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "address is required"})
		return
	}

	message, err := h.wallet.IssueChallenge(c.Request.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": core.ErrInvalidAddress.Error()})
		case errors.Is(err, core.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"valid": false, "error": msgUnavailable})
		default:
			h.logger.Error("failed to issue challenge", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "error": msgInternal})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "message": message})
}

// Verify checks a signed challenge and opens a session
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": msgInvalidRequest})
		return
	}

	result, err := h.authService.WalletLogin(c.Request.Context(), req.Address, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"valid": false, "error": msgUnavailable})
		case isAuthFailure(err):
			// the reason is logged by the wallet service and never returned
			c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": msgAuthFailed})
		default:
			h.logger.Error("wallet login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "error": msgInternal})
		}
		return
	}

	body := tokenBody(&result.TokenPair)
	body["valid"] = true
	body["linked"] = result.Linked
	body["address"] = result.Address
	if result.User != nil {
		body["user"] = identityBody(result.User)
	}
	c.JSON(http.StatusOK, body)
}

// Register creates an email and password account
func (h *AuthHandlers) Register(c *gin.Context) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	if _, err := h.credentials.Register(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword); err != nil {
		switch {
		case errors.Is(err, core.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		case errors.Is(err, core.ErrMissingFields),
			errors.Is(err, core.ErrInvalidEmail),
			errors.Is(err, core.ErrWeakPassword),
			errors.Is(err, core.ErrPasswordTooLong),
			errors.Is(err, core.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, core.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
		default:
			h.logger.Error("registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// Login authenticates with email and password
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
		return
	}

	result, err := h.authService.PasswordLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
		case errors.Is(err, core.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
		default:
			h.logger.Error("password login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		}
		return
	}

	body := tokenBody(&result.TokenPair)
	body["linked"] = result.Linked
	body["user"] = identityBody(result.User)
	if result.Address != "" {
		body["address"] = result.Address
	}
	c.JSON(http.StatusOK, body)
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
		case errors.Is(err, core.ErrTokenInvalidated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token has been invalidated"})
		case errors.Is(err, core.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid refresh token"})
		case errors.Is(err, core.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
		default:
			h.logger.Error("refresh failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh tokens"})
		}
		return
	}

	c.JSON(http.StatusOK, tokenBody(pair))
}

// Logout handles session logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		switch {
		case errors.Is(err, core.ErrTokenExpired):
			// an expired token cannot be used anyway
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
		case errors.Is(err, core.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid refresh token"})
		case errors.Is(err, core.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
		default:
			h.logger.Error("logout failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Profile returns the account of the authenticated user
func (h *AuthHandlers) Profile(c *gin.Context) {
	userID, ok := accountID(c)
	if !ok {
		return
	}

	user, err := h.accounts.Profile(c.Request.Context(), userID)
	if err != nil {
		h.accountError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileBody(user))
}

// ConnectWallet binds a wallet to the authenticated account
func (h *AuthHandlers) ConnectWallet(c *gin.Context) {
	userID, ok := accountID(c)
	if !ok {
		return
	}

	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address and signature are required"})
		return
	}

	user, err := h.accounts.ConnectWallet(c.Request.Context(), userID, req.WalletAddress, req.Signature)
	if err != nil {
		h.accountError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Wallet connected successfully",
		"walletAddress": user.WalletAddress,
	})
}

// DisconnectWallet removes the wallet bound to the authenticated account
func (h *AuthHandlers) DisconnectWallet(c *gin.Context) {
	userID, ok := accountID(c)
	if !ok {
		return
	}

	if _, err := h.accounts.DisconnectWallet(c.Request.Context(), userID); err != nil {
		h.accountError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Wallet disconnected successfully"})
}

// Healthz reports liveness
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandlers) accountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, core.ErrDuplicateWalletBinding):
		c.JSON(http.StatusConflict, gin.H{"error": "Wallet is already linked to another account"})
	case errors.Is(err, core.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
	case isAuthFailure(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgAuthFailed})
	default:
		h.logger.Error("account operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

// accountID returns the account of the session, rejecting wallet-only sessions
func accountID(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "No account is linked to this session"})
		return "", false
	}
	return userID, true
}

func isAuthFailure(err error) bool {
	return errors.Is(err, core.ErrNoChallenge) ||
		errors.Is(err, core.ErrChallengeExpired) ||
		errors.Is(err, core.ErrSignatureMismatch) ||
		errors.Is(err, core.ErrInvalidAddress)
}

func tokenBody(pair *service.TokenPair) gin.H {
	return gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(pair.ExpiresIn.Seconds()),
	}
}

func identityBody(id *core.Identity) gin.H {
	return gin.H{"id": id.ID, "email": id.Email, "name": id.Name}
}

func profileBody(u *core.User) gin.H {
	body := gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
	if u.HasWallet() {
		body["walletAddress"] = u.WalletAddress
	} else {
		body["walletAddress"] = nil
	}
	return body
}
