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
	"github.com/suteetoe/perftrack/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListRoles returns all roles with their permission sets
func ListRoles(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var roles []model.Role
	if result := database.GetDB().Preload("Permissions").Order("rank desc").Find(&roles); result.Error != nil {
		log.Error("Failed to list roles", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to list roles")
	}

	return response.Success(c, http.StatusOK, roles)
}

// ListPermissions returns the full permission catalog
func ListPermissions(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var permissions []model.Permission
	if result := database.GetDB().Order("key").Find(&permissions); result.Error != nil {
		log.Error("Failed to list permissions", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to list permissions")
	}

	return response.Success(c, http.StatusOK, permissions)
}

// CreateRole creates a role below the actor's own rank and assigns its
// permission set in one transaction
func CreateRole(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	var req struct {
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		Rank           int      `json:"rank"`
		PermissionKeys []string `json:"permission_keys"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse role creation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if req.Name == "" {
		return response.Error(c, http.StatusBadRequest, "name is required")
	}

	rank, err := actorRank(principal)
	if err != nil {
		log.Error("Failed to resolve actor role", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to resolve role")
	}
	if !auth.CanAssignRole(rank, req.Rank) {
		prometheus.RecordAuthError("privilege_escalation")
		return response.Error(c, http.StatusForbidden, "cannot create a role of equal or higher rank")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	database.GetDB().Model(&model.Role{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		return response.Error(c, http.StatusConflict, "role name already exists")
	}

	var permissions []model.Permission
	if len(req.PermissionKeys) > 0 {
		if result := database.GetDB().Where("key IN ?", req.PermissionKeys).Find(&permissions); result.Error != nil {
			log.Error("Failed to resolve permissions", zap.Error(result.Error))
			return response.Error(c, http.StatusInternalServerError, "failed to resolve permissions")
		}
		if len(permissions) != len(req.PermissionKeys) {
			return response.Error(c, http.StatusBadRequest, "unknown permission key")
		}
	}

	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		Rank:        req.Rank,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		if len(permissions) > 0 {
			if err := tx.Model(&role).Association("Permissions").Replace(permissions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to create role", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "role creation failed")
	}

	log.Info("Role created", zap.String("name", role.Name), zap.Int("rank", role.Rank))
	return response.Success(c, http.StatusCreated, role)
}

// UpdateRolePermissions replaces a role's permission set in one transaction
func UpdateRolePermissions(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid role ID")
	}

	var req struct {
		PermissionKeys []string `json:"permission_keys"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse role update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var role model.Role
	if result := database.GetDB().First(&role, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "role not found")
	}

	// Roles at or above the actor's own rank are off limits, elevated ones
	// in particular
	rank, err := actorRank(principal)
	if err != nil {
		log.Error("Failed to resolve actor role", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to resolve role")
	}
	if role.Elevated || !auth.CanAssignRole(rank, role.Rank) {
		prometheus.RecordAuthError("privilege_escalation")
		return response.Error(c, http.StatusForbidden, "cannot modify this role")
	}

	var permissions []model.Permission
	if len(req.PermissionKeys) > 0 {
		if result := database.GetDB().Where("key IN ?", req.PermissionKeys).Find(&permissions); result.Error != nil {
			log.Error("Failed to resolve permissions", zap.Error(result.Error))
			return response.Error(c, http.StatusInternalServerError, "failed to resolve permissions")
		}
		if len(permissions) != len(req.PermissionKeys) {
			return response.Error(c, http.StatusBadRequest, "unknown permission key")
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		return tx.Model(&role).Association("Permissions").Replace(permissions)
	})
	if err != nil {
		log.Error("Failed to update role permissions", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "role update failed")
	}

	log.Info("Role permissions updated",
		zap.String("name", role.Name),
		zap.Int("permissions", len(permissions)))
	return response.Success(c, http.StatusOK, role)
}
