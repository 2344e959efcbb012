package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/internal/auth"
	"github.com/suteetoe/perftrack/internal/middleware"
	"github.com/suteetoe/perftrack/internal/model"
	"github.com/suteetoe/perftrack/internal/response"
	"github.com/suteetoe/perftrack/pkg/database"
	"github.com/suteetoe/perftrack/pkg/logger"
	"github.com/suteetoe/perftrack/pkg/mailer"
	"github.com/suteetoe/perftrack/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// actorRank resolves the rank of the caller's role for escalation checks
func actorRank(principal *auth.Principal) (int, error) {
	var role model.Role
	if result := database.GetDB().Select("rank").Where("name = ?", principal.Role).First(&role); result.Error != nil {
		return 0, result.Error
	}
	return role.Rank, nil
}

// loadProtectedUser loads the target user with its role and rejects when the
// target holds an elevated role. Elevated records cannot be mutated,
// deactivated, anonymized or deleted by any path.
func loadProtectedUser(c echo.Context, id uint) (*model.User, error) {
	var user model.User
	if result := database.GetDB().Preload("Role").First(&user, id); result.Error != nil {
		return nil, response.Error(c, http.StatusNotFound, "user not found")
	}
	if user.Role.Elevated {
		prometheus.RecordAuthError("elevated_target")
		return nil, response.Error(c, http.StatusForbidden, "elevated accounts cannot be modified")
	}
	return &user, nil
}

// CreateUser creates a user with an assigned role
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("create")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		RoleID    uint   `json:"role_id"`
		TenantID  *uint  `json:"tenant_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user creation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if req.Email == "" || req.Password == "" || req.RoleID == 0 {
		return response.Error(c, http.StatusBadRequest, "email, password and role_id are required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	// Reject duplicate email
	var count int64
	database.GetDB().Model(&model.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("User already exists", zap.String("email", req.Email))
		return response.Error(c, http.StatusConflict, "email already registered")
	}

	// The assigned role must exist and sit strictly below the actor's own
	var role model.Role
	if result := database.GetDB().First(&role, req.RoleID); result.Error != nil {
		return response.Error(c, http.StatusBadRequest, "role does not exist")
	}
	rank, err := actorRank(principal)
	if err != nil {
		log.Error("Failed to resolve actor role", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to resolve role")
	}
	if !auth.CanAssignRole(rank, role.Rank) {
		log.Warn("Privilege escalation attempt",
			zap.Uint("actor_id", principal.UserID),
			zap.String("target_role", role.Name))
		prometheus.RecordAuthError("privilege_escalation")
		return response.Error(c, http.StatusForbidden, "cannot assign a role of equal or higher rank")
	}

	// Optional tenant must exist
	if req.TenantID != nil {
		var tenant model.Tenant
		if result := database.GetDB().First(&tenant, *req.TenantID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "tenant does not exist")
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "user creation failed")
	}

	user := model.User{
		Email:     req.Email,
		Password:  string(hashedPassword),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleID:    role.ID,
		TenantID:  req.TenantID,
		Active:    true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "user creation failed")
	}

	// Welcome mail is best-effort
	mail.SendAsync(mailer.Message{
		To:       user.Email,
		Template: "welcome",
		Data: map[string]interface{}{
			"first_name": user.FirstName,
			"role":       role.Name,
		},
	})

	log.Info("User created",
		zap.String("email", user.Email),
		zap.String("role", role.Name))
	return response.Success(c, http.StatusCreated, user)
}

// ListUsers lists users; non-elevated callers only see their own tenant
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("list")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB().Preload("Role")
	if !principal.Elevated {
		if principal.TenantID == nil {
			// No tenant membership: the caller only sees themselves
			query = query.Where("id = ?", principal.UserID)
		} else {
			query = query.Where("tenant_id = ? OR id = ?", *principal.TenantID, principal.UserID)
		}
	}

	var users []model.User
	if result := query.Order("email").Find(&users); result.Error != nil {
		log.Error("Failed to list users", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to list users")
	}

	return response.Success(c, http.StatusOK, users)
}

// GetUser retrieves one user record
func GetUser(c echo.Context) error {
	prometheus.RecordUserOperation("read")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Preload("Role").First(&user, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "user not found")
	}

	if !principal.CanAccessRecord(user.ID, user.TenantID, tenantLeaderID(user.TenantID)) {
		prometheus.RecordAuthError("ownership_denied")
		return response.Error(c, http.StatusForbidden, "access denied")
	}

	return response.Success(c, http.StatusOK, user)
}

// UpdateUser updates profile fields and, with the escalation guard, the role
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("update")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, errResp := loadProtectedUser(c, id)
	if user == nil {
		return errResp
	}

	var req struct {
		FirstName *string `json:"first_name,omitempty"`
		LastName  *string `json:"last_name,omitempty"`
		RoleID    *uint   `json:"role_id,omitempty"`
		TenantID  *uint   `json:"tenant_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.TenantID != nil {
		var tenant model.Tenant
		if result := database.GetDB().First(&tenant, *req.TenantID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "tenant does not exist")
		}
		updates["tenant_id"] = *req.TenantID
	}

	if req.RoleID != nil && *req.RoleID != user.RoleID {
		var role model.Role
		if result := database.GetDB().First(&role, *req.RoleID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "role does not exist")
		}
		rank, err := actorRank(principal)
		if err != nil {
			log.Error("Failed to resolve actor role", zap.Error(err))
			return response.Error(c, http.StatusInternalServerError, "failed to resolve role")
		}
		if !auth.CanAssignRole(rank, role.Rank) {
			log.Warn("Privilege escalation attempt",
				zap.Uint("actor_id", principal.UserID),
				zap.Uint("target_id", user.ID),
				zap.String("target_role", role.Name))
			prometheus.RecordAuthError("privilege_escalation")
			return response.Error(c, http.StatusForbidden, "cannot assign a role of equal or higher rank")
		}
		updates["role_id"] = role.ID
	}

	if len(updates) == 0 {
		return response.Success(c, http.StatusOK, user)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(user).Updates(updates).Error; err != nil {
		log.Error("Failed to update user", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "user update failed")
	}

	log.Info("User updated", zap.Uint("id", user.ID))
	return response.Success(c, http.StatusOK, user)
}

// DeactivateUser flips the active flag off
func DeactivateUser(c echo.Context) error {
	return setUserActive(c, false, "deactivate")
}

// ActivateUser flips the active flag back on
func ActivateUser(c echo.Context) error {
	return setUserActive(c, true, "activate")
}

func setUserActive(c echo.Context, active bool, operation string) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation(operation)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	user, errResp := loadProtectedUser(c, id)
	if user == nil {
		return errResp
	}
	if user.Anonymized {
		return response.Error(c, http.StatusBadRequest, "anonymized accounts cannot be reactivated")
	}

	if err := database.GetDB().Model(user).Update("active", active).Error; err != nil {
		log.Error("Failed to update user active flag", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "user update failed")
	}

	log.Info("User active flag changed", zap.Uint("id", user.ID), zap.Bool("active", active))
	return response.Success(c, http.StatusOK, echo.Map{"id": user.ID, "active": active})
}

// UnlockUser clears a login lockout by admin action
func UnlockUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("unlock")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "user not found")
	}

	if err := database.GetDB().Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}).Error; err != nil {
		log.Error("Failed to unlock user", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "unlock failed")
	}

	log.Info("User unlocked", zap.Uint("id", user.ID))
	return response.Success(c, http.StatusOK, echo.Map{"id": user.ID, "message": "account unlocked"})
}

// AnonymizeUser overwrites all PII on the record. Terminal: the account
// cannot be used afterwards.
func AnonymizeUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("anonymize")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	user, errResp := loadProtectedUser(c, id)
	if user == nil {
		return errResp
	}

	user.Anonymize()
	if err := database.GetDB().Model(user).Select(
		"email", "first_name", "last_name", "password",
		"reset_token", "reset_expiry", "active", "anonymized",
	).Updates(user).Error; err != nil {
		log.Error("Failed to anonymize user", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "anonymization failed")
	}

	log.Info("User anonymized", zap.Uint("id", user.ID))
	return response.Success(c, http.StatusOK, echo.Map{"id": user.ID, "message": "user anonymized"})
}

// DeleteUser soft-deletes a user record
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("delete")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	user, errResp := loadProtectedUser(c, id)
	if user == nil {
		return errResp
	}

	if err := database.GetDB().Delete(user).Error; err != nil {
		log.Error("Failed to delete user", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "user deletion failed")
	}

	log.Info("User deleted", zap.Uint("id", user.ID))
	return response.Success(c, http.StatusOK, echo.Map{"id": user.ID, "message": "user deleted"})
}
