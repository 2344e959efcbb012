package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/internal/middleware"
	"github.com/suteetoe/perftrack/internal/model"
	"github.com/suteetoe/perftrack/internal/response"
	"github.com/suteetoe/perftrack/pkg/database"
	"github.com/suteetoe/perftrack/pkg/logger"
	"github.com/suteetoe/perftrack/prometheus"
	"go.uber.org/zap"
)

// CreateTenant handles tenant creation
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("create")

	var req struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		Description string `json:"description"`
		LeaderID    *uint  `json:"leader_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if req.Code == "" || req.Name == "" {
		return response.Error(c, http.StatusBadRequest, "code and name are required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	database.GetDB().Model(&model.Tenant{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		log.Warn("Tenant code already exists", zap.String("code", req.Code))
		return response.Error(c, http.StatusConflict, "tenant code already exists")
	}

	if req.LeaderID != nil {
		var leader model.User
		if result := database.GetDB().First(&leader, *req.LeaderID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "leader does not exist")
		}
	}

	tenant := model.Tenant{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		LeaderID:    req.LeaderID,
		Active:      true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&tenant); result.Error != nil {
		log.Error("Failed to create tenant", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "tenant creation failed")
	}

	log.Info("Tenant created",
		zap.String("code", tenant.Code),
		zap.Uint("id", tenant.ID))
	return response.Success(c, http.StatusCreated, tenant)
}

// ListTenants lists tenants; non-elevated callers only see tenants they
// belong to
func ListTenants(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("list")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB().Model(&model.Tenant{})
	if !principal.Elevated {
		if principal.TenantID != nil {
			query = query.Where("id = ? OR leader_id = ?", *principal.TenantID, principal.UserID)
		} else {
			query = query.Where("leader_id = ?", principal.UserID)
		}
	}

	var tenants []model.Tenant
	if result := query.Order("code").Find(&tenants); result.Error != nil {
		log.Error("Failed to list tenants", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to list tenants")
	}

	return response.Success(c, http.StatusOK, tenants)
}

// GetTenant retrieves tenant details including its members
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("read")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "tenant not found")
	}

	if !principal.Elevated && !tenant.HasMember(principal.UserID, principal.TenantID) {
		log.Warn("Unauthorized tenant access attempt",
			zap.Uint("user_id", principal.UserID),
			zap.Uint("tenant_id", tenant.ID))
		prometheus.RecordAuthError("tenant_access_denied")
		return response.Error(c, http.StatusForbidden, "access denied")
	}

	var members []model.User
	if result := database.GetDB().Preload("Role").Where("tenant_id = ?", tenant.ID).Order("email").Find(&members); result.Error != nil {
		log.Error("Failed to load tenant members", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to load tenant members")
	}

	return response.Success(c, http.StatusOK, echo.Map{
		"tenant":  tenant,
		"members": members,
	})
}

// UpdateTenant updates tenant fields including the leader
func UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "tenant not found")
	}

	var req struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		LeaderID    *uint   `json:"leader_id,omitempty"`
		Active      *bool   `json:"active,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.LeaderID != nil {
		var leader model.User
		if result := database.GetDB().First(&leader, *req.LeaderID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "leader does not exist")
		}
		updates["leader_id"] = *req.LeaderID
	}

	if len(updates) == 0 {
		return response.Success(c, http.StatusOK, tenant)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&tenant).Updates(updates).Error; err != nil {
		log.Error("Failed to update tenant", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "tenant update failed")
	}

	log.Info("Tenant updated", zap.Uint("id", tenant.ID))
	return response.Success(c, http.StatusOK, tenant)
}

// AddTenantMember attaches a user to the tenant as an employee
func AddTenantMember(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("add_member")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	var req struct {
		UserEmail string `json:"user_email"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse add member request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if req.UserEmail == "" {
		return response.Error(c, http.StatusBadRequest, "user_email is required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "tenant not found")
	}

	user, err := model.FindUserByEmail(database.GetDB(), req.UserEmail)
	if err != nil {
		return response.Error(c, http.StatusNotFound, "user not found")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(user).Update("tenant_id", tenant.ID).Error; err != nil {
		log.Error("Failed to add member", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to add member")
	}

	log.Info("Tenant member added",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("email", user.Email))
	return response.Success(c, http.StatusOK, echo.Map{
		"tenant_id": tenant.ID,
		"user_id":   user.ID,
	})
}

// RemoveTenantMember detaches a user from the tenant
func RemoveTenantMember(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("remove_member")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}
	userID, err := parseIDParam(c, "user_id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "user not found")
	}
	if user.TenantID == nil || *user.TenantID != id {
		return response.Error(c, http.StatusBadRequest, "user is not a member of this tenant")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("tenant_id", nil).Error; err != nil {
		log.Error("Failed to remove member", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to remove member")
	}

	log.Info("Tenant member removed",
		zap.Uint("tenant_id", id),
		zap.Uint("user_id", user.ID))
	return response.Success(c, http.StatusOK, echo.Map{
		"tenant_id": id,
		"user_id":   user.ID,
	})
}

// DeleteTenant soft-deletes a tenant
func DeleteTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("delete")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "tenant not found")
	}

	if err := database.GetDB().Delete(&tenant).Error; err != nil {
		log.Error("Failed to delete tenant", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "tenant deletion failed")
	}

	log.Info("Tenant deleted", zap.Uint("id", tenant.ID))
	return response.Success(c, http.StatusOK, echo.Map{"id": tenant.ID, "message": "tenant deleted"})
}
