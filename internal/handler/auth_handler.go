package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/internal/middleware"
	"github.com/suteetoe/perftrack/internal/model"
	"github.com/suteetoe/perftrack/internal/response"
	"github.com/suteetoe/perftrack/pkg/database"
	"github.com/suteetoe/perftrack/pkg/jwtutil"
	"github.com/suteetoe/perftrack/pkg/logger"
	"github.com/suteetoe/perftrack/pkg/mailer"
	"github.com/suteetoe/perftrack/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// recordLoginAttempt appends a login-log entry. Log failures never surface to
// the caller.
func recordLoginAttempt(c echo.Context, email string, userID *uint, success bool, reason string) {
	entry := model.LoginLog{
		Email:   email,
		UserID:  userID,
		Success: success,
		Reason:  reason,
		IP:      c.RealIP(),
	}
	if err := database.GetDB().Create(&entry).Error; err != nil {
		logger.FromContext(c).Error("Failed to record login attempt", zap.Error(err))
	}
}

// Login authenticates a user and issues a session token
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Preload("Role.Permissions").Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Warn("Login for unknown user", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		recordLoginAttempt(c, req.Email, nil, false, model.LoginReasonUserNotFound)
		return response.Error(c, http.StatusUnauthorized, "invalid credentials")
	}

	now := time.Now()

	// A lock in force rejects the attempt before the password is even
	// looked at
	if user.Locked(now) {
		log.Warn("Login against locked account", zap.String("email", req.Email))
		prometheus.RecordAuthError("account_locked")
		recordLoginAttempt(c, req.Email, &user.ID, false, model.LoginReasonAccountLocked)
		return response.Error(c, http.StatusUnauthorized, "account temporarily locked")
	}

	if !user.Active || user.Anonymized {
		log.Warn("Login against inactive account", zap.String("email", req.Email))
		prometheus.RecordAuthError("account_inactive")
		recordLoginAttempt(c, req.Email, &user.ID, false, model.LoginReasonAccountInactive)
		return response.Error(c, http.StatusUnauthorized, "account inactive")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= cfg.Auth.MaxLoginAttempts {
			lockedUntil := now.Add(cfg.Auth.LockDuration)
			user.LockedUntil = &lockedUntil
			prometheus.LockoutCounter.Inc()
			log.Warn("Account locked after repeated failures",
				zap.String("email", req.Email),
				zap.Int("attempts", user.FailedLoginAttempts))
		}
		if err := database.GetDB().Model(&user).Select("failed_login_attempts", "locked_until").Updates(&user).Error; err != nil {
			log.Error("Failed to persist lockout state", zap.Error(err))
		}

		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		recordLoginAttempt(c, req.Email, &user.ID, false, model.LoginReasonInvalidPassword)
		return response.Error(c, http.StatusUnauthorized, "invalid credentials")
	}

	// Successful authentication after an expired lock clears the lockout
	// state
	user.ClearLockout()
	if err := database.GetDB().Model(&user).Select("failed_login_attempts", "locked_until").Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}).Error; err != nil {
		log.Error("Failed to clear lockout state", zap.Error(err))
	}

	// Generate session token carrying the resolved permission set
	token, err := jwtutil.GenerateToken(
		user.Email,
		user.ID,
		user.Role.Name,
		user.Role.Elevated,
		user.Role.PermissionKeys(),
		user.TenantID,
	)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return response.Error(c, http.StatusInternalServerError, "token error")
	}

	// Record the session
	session := model.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(time.Duration(cfg.JWT.ExpirationHours) * time.Hour),
	}
	if err := database.GetDB().Create(&session).Error; err != nil {
		log.Error("Failed to record session", zap.Error(err))
		prometheus.RecordAuthError("session_creation_failed")
		return response.Error(c, http.StatusInternalServerError, "session error")
	}

	prometheus.IncreaseActiveSessions()
	recordLoginAttempt(c, req.Email, &user.ID, true, model.LoginReasonOK)

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", user.Role.Name))

	return response.Success(c, http.StatusOK, echo.Map{
		"token":      token,
		"expires_at": session.ExpiresAt,
		"user": echo.Map{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.Role.Name,
			"tenant_id":  user.TenantID,
		},
	})
}

// ForgotPassword issues a single-use, time-boxed password reset token and
// mails it to the user
func ForgotPassword(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.PasswordResetCounter.Inc()

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse forgot-password request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if req.Email == "" {
		return response.Error(c, http.StatusBadRequest, "email is required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, err := model.FindUserByEmail(database.GetDB(), req.Email)
	if err != nil {
		log.Warn("Password reset for unknown user", zap.String("email", req.Email))
		return response.Error(c, http.StatusNotFound, "user not found")
	}
	if !user.Active || user.Anonymized {
		return response.Error(c, http.StatusUnauthorized, "account inactive")
	}

	token := model.GenerateSecureToken()
	expiry := time.Now().Add(cfg.Auth.ResetTokenTTL)
	if err := database.GetDB().Model(user).Updates(map[string]interface{}{
		"reset_token":  token,
		"reset_expiry": expiry,
	}).Error; err != nil {
		log.Error("Failed to store reset token", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to issue reset token")
	}

	// Best-effort notification: never blocks or fails the request
	mail.SendAsync(mailer.Message{
		To:       user.Email,
		Template: "password-reset",
		Data: map[string]interface{}{
			"first_name": user.FirstName,
			"token":      token,
			"expires_at": expiry,
		},
	})

	log.Info("Password reset token issued", zap.String("email", user.Email))
	return response.Success(c, http.StatusOK, echo.Map{"message": "password reset email sent"})
}

// ResetPassword consumes a reset token and sets a new password. Consuming the
// token also clears any lockout state.
func ResetPassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse reset-password request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if req.Token == "" || req.Password == "" {
		return response.Error(c, http.StatusBadRequest, "token and password are required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, err := model.FindUserByResetToken(database.GetDB(), req.Token)
	if err != nil {
		log.Warn("Reset with unknown token")
		prometheus.RecordAuthError("invalid_reset_token")
		return response.Error(c, http.StatusUnauthorized, "invalid or expired reset token")
	}
	if user.ResetExpiry == nil || time.Now().After(*user.ResetExpiry) {
		log.Warn("Reset with expired token", zap.String("email", user.Email))
		prometheus.RecordAuthError("expired_reset_token")
		return response.Error(c, http.StatusUnauthorized, "invalid or expired reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "password reset failed")
	}

	// The token is single-use: clear it together with the lockout state
	if err := database.GetDB().Model(user).Updates(map[string]interface{}{
		"password":              string(hashedPassword),
		"reset_token":           nil,
		"reset_expiry":          nil,
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "password reset failed")
	}

	log.Info("Password reset completed", zap.String("email", user.Email))
	return response.Success(c, http.StatusOK, echo.Map{"message": "password updated"})
}

// ChangePassword lets an authenticated user rotate their own password
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse change-password request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return response.Error(c, http.StatusBadRequest, "current_password and new_password are required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, principal.UserID); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		log.Warn("Password change with wrong current password", zap.String("email", user.Email))
		prometheus.RecordAuthError("invalid_password")
		return response.Error(c, http.StatusUnauthorized, "invalid credentials")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "password change failed")
	}

	if err := database.GetDB().Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "password change failed")
	}

	log.Info("Password changed", zap.String("email", user.Email))
	return response.Success(c, http.StatusOK, echo.Map{"message": "password updated"})
}

// GetProfile returns the authenticated user's own record
func GetProfile(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Preload("Role.Permissions").First(&user, principal.UserID); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "user not found")
	}

	return response.Success(c, http.StatusOK, user)
}
