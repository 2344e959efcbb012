package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/internal/middleware"
	"github.com/suteetoe/perftrack/internal/model"
	"github.com/suteetoe/perftrack/internal/response"
	"github.com/suteetoe/perftrack/internal/scoring"
	"github.com/suteetoe/perftrack/pkg/database"
	"github.com/suteetoe/perftrack/pkg/logger"
	"github.com/suteetoe/perftrack/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recalculateProjectScore recomputes the derived score from the project's
// indicator links. Best-effort: it runs after the link mutation has
// committed, and a failure here is logged without rolling anything back.
func recalculateProjectScore(projectID uint, log *zap.Logger) {
	var links []model.ProjectIndicator
	if err := database.GetDB().Where("project_id = ?", projectID).Find(&links).Error; err != nil {
		prometheus.RecordScoreRecalc("failed")
		log.Error("Score recalculation failed to load links",
			zap.Uint("project_id", projectID),
			zap.Error(err))
		return
	}

	scores := make([]*float64, 0, len(links))
	for _, link := range links {
		scores = append(scores, link.Score)
	}

	score := scoring.Average(scores)
	if err := database.GetDB().Model(&model.Project{}).Where("id = ?", projectID).Update("score", score).Error; err != nil {
		prometheus.RecordScoreRecalc("failed")
		log.Error("Score recalculation failed to store score",
			zap.Uint("project_id", projectID),
			zap.Error(err))
		return
	}

	prometheus.RecordScoreRecalc("ok")
}

// loadAccessibleProject loads a project and applies the ownership axis
func loadAccessibleProject(c echo.Context, id uint) (*model.Project, error) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return nil, response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	var project model.Project
	if result := database.GetDB().First(&project, id); result.Error != nil {
		return nil, response.Error(c, http.StatusNotFound, "project not found")
	}

	if !principal.CanAccessRecord(project.OwnerID, project.TenantID, tenantLeaderID(project.TenantID)) {
		prometheus.RecordAuthError("ownership_denied")
		return nil, response.Error(c, http.StatusForbidden, "access denied")
	}

	return &project, nil
}

// CreateProject creates a project owned by the caller
func CreateProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("create")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	var req struct {
		Code        string   `json:"code"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		TenantID    *uint    `json:"tenant_id,omitempty"`
		Status      string   `json:"status,omitempty"`
		Domains     []string `json:"domains,omitempty"`
		Pillars     []string `json:"pillars,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse project creation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if req.Code == "" || req.Name == "" {
		return response.Error(c, http.StatusBadRequest, "code and name are required")
	}
	if req.Status == "" {
		req.Status = model.ProjectStatusFraming
	}
	if !model.ValidProjectStatus(req.Status) {
		return response.Error(c, http.StatusBadRequest, "invalid project status")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	database.GetDB().Model(&model.Project{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		log.Warn("Project code already exists", zap.String("code", req.Code))
		return response.Error(c, http.StatusConflict, "project code already exists")
	}

	if req.TenantID != nil {
		var tenant model.Tenant
		if result := database.GetDB().First(&tenant, *req.TenantID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "tenant does not exist")
		}
	}

	project := model.Project{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     principal.UserID,
		TenantID:    req.TenantID,
		Status:      req.Status,
		Domains:     req.Domains,
		Pillars:     req.Pillars,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&project); result.Error != nil {
		log.Error("Failed to create project", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "project creation failed")
	}

	log.Info("Project created",
		zap.String("code", project.Code),
		zap.Uint("id", project.ID),
		zap.Uint("owner_id", project.OwnerID))
	return response.Success(c, http.StatusCreated, project)
}

// ListProjects lists projects visible to the caller
func ListProjects(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("list")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB().Model(&model.Project{})
	if !principal.Elevated {
		if principal.TenantID != nil {
			query = query.Where("owner_id = ? OR tenant_id = ?", principal.UserID, *principal.TenantID)
		} else {
			query = query.Where("owner_id = ?", principal.UserID)
		}
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var projects []model.Project
	if result := query.Order("code").Find(&projects); result.Error != nil {
		log.Error("Failed to list projects", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to list projects")
	}

	return response.Success(c, http.StatusOK, projects)
}

// GetProject retrieves one project with its indicator links and status
// history
func GetProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("read")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	project, errResp := loadAccessibleProject(c, id)
	if project == nil {
		return errResp
	}

	var links []model.ProjectIndicator
	if result := database.GetDB().Preload("Indicator").Where("project_id = ?", project.ID).Find(&links); result.Error != nil {
		log.Error("Failed to load indicator links", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to load indicator links")
	}

	var history []model.ProjectStatusHistory
	if result := database.GetDB().Where("project_id = ?", project.ID).Order("created_at").Find(&history); result.Error != nil {
		log.Error("Failed to load status history", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to load status history")
	}

	return response.Success(c, http.StatusOK, echo.Map{
		"project":        project,
		"indicators":     links,
		"status_history": history,
	})
}

// UpdateProject updates project fields other than status and score
func UpdateProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("update")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	project, errResp := loadAccessibleProject(c, id)
	if project == nil {
		return errResp
	}

	var req struct {
		Name        *string   `json:"name,omitempty"`
		Description *string   `json:"description,omitempty"`
		TenantID    *uint     `json:"tenant_id,omitempty"`
		Domains     *[]string `json:"domains,omitempty"`
		Pillars     *[]string `json:"pillars,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse project update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.TenantID != nil {
		var tenant model.Tenant
		if result := database.GetDB().First(&tenant, *req.TenantID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "tenant does not exist")
		}
		updates["tenant_id"] = *req.TenantID
	}
	if req.Domains != nil {
		updates["domains"] = *req.Domains
	}
	if req.Pillars != nil {
		updates["pillars"] = *req.Pillars
	}

	if len(updates) == 0 {
		return response.Success(c, http.StatusOK, project)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(project).Updates(updates).Error; err != nil {
		log.Error("Failed to update project", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "project update failed")
	}

	log.Info("Project updated", zap.Uint("id", project.ID))
	return response.Success(c, http.StatusOK, project)
}

// UpdateProjectStatus moves the project to a new lifecycle status and
// appends a history entry
func UpdateProjectStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("status_change")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse status change request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if !model.ValidProjectStatus(req.Status) {
		return response.Error(c, http.StatusBadRequest, "invalid project status")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	project, errResp := loadAccessibleProject(c, id)
	if project == nil {
		return errResp
	}
	if project.Status == req.Status {
		return response.Success(c, http.StatusOK, project)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	previous := project.Status
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(project).Update("status", req.Status).Error; err != nil {
			return err
		}
		return tx.Create(&model.ProjectStatusHistory{
			ProjectID:  project.ID,
			FromStatus: previous,
			ToStatus:   req.Status,
			ChangedBy:  principal.UserID,
		}).Error
	})
	if err != nil {
		log.Error("Failed to change project status", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "status change failed")
	}

	log.Info("Project status changed",
		zap.Uint("id", project.ID),
		zap.String("from", previous),
		zap.String("to", req.Status))
	return response.Success(c, http.StatusOK, project)
}

// ReplaceProjectIndicators replaces the project's indicator link set
// wholesale. The link replacement is transactional; the score recompute that
// follows it is a best-effort side effect.
func ReplaceProjectIndicators(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("replace_indicators")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}

	var req struct {
		Indicators []struct {
			IndicatorID uint     `json:"indicator_id"`
			Score       *float64 `json:"score,omitempty"`
		} `json:"indicators"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse indicator link request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	project, errResp := loadAccessibleProject(c, id)
	if project == nil {
		return errResp
	}

	// Every referenced indicator must exist, and scores must respect the
	// indicator's bounds when it has any
	indicators := make(map[uint]model.PerformanceIndicator, len(req.Indicators))
	for _, link := range req.Indicators {
		var indicator model.PerformanceIndicator
		if result := database.GetDB().First(&indicator, link.IndicatorID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "indicator does not exist")
		}
		if link.Score != nil {
			if indicator.MinScore != nil && *link.Score < *indicator.MinScore {
				return response.Error(c, http.StatusBadRequest, "score below indicator minimum")
			}
			if indicator.MaxScore != nil && *link.Score > *indicator.MaxScore {
				return response.Error(c, http.StatusBadRequest, "score above indicator maximum")
			}
		}
		if _, dup := indicators[link.IndicatorID]; dup {
			return response.Error(c, http.StatusBadRequest, "duplicate indicator link")
		}
		indicators[link.IndicatorID] = indicator
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&model.ProjectIndicator{}).Error; err != nil {
			return err
		}
		for _, link := range req.Indicators {
			if err := tx.Create(&model.ProjectIndicator{
				ProjectID:   project.ID,
				IndicatorID: link.IndicatorID,
				Score:       link.Score,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to replace indicator links", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "indicator link update failed")
	}

	// Derived score follows the committed mutation
	recalculateProjectScore(project.ID, log)

	var updated model.Project
	if result := database.GetDB().First(&updated, project.ID); result.Error == nil {
		project = &updated
	}

	log.Info("Project indicator links replaced",
		zap.Uint("id", project.ID),
		zap.Int("links", len(req.Indicators)))
	return response.Success(c, http.StatusOK, project)
}

// DeleteProject soft-deletes a project
func DeleteProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("delete")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	project, errResp := loadAccessibleProject(c, id)
	if project == nil {
		return errResp
	}

	if err := database.GetDB().Delete(project).Error; err != nil {
		log.Error("Failed to delete project", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "project deletion failed")
	}

	log.Info("Project deleted", zap.Uint("id", project.ID))
	return response.Success(c, http.StatusOK, echo.Map{"id": project.ID, "message": "project deleted"})
}

// GetProjectStatistics returns real counts grouped by status and pillar
func GetProjectStatistics(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("statistics")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	base := database.GetDB().Model(&model.Project{})
	if !principal.Elevated {
		if principal.TenantID != nil {
			base = base.Where("owner_id = ? OR tenant_id = ?", principal.UserID, *principal.TenantID)
		} else {
			base = base.Where("owner_id = ?", principal.UserID)
		}
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		log.Error("Failed to count projects", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to compute statistics")
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var byStatus []statusCount
	if err := base.Session(&gorm.Session{}).Select("status, count(*) as count").Group("status").Scan(&byStatus).Error; err != nil {
		log.Error("Failed to group by status", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to compute statistics")
	}

	// Pillars are a JSON array per project, so the grouping happens here
	// rather than in SQL
	var pillarRows []model.Project
	if err := base.Session(&gorm.Session{}).Select("pillars").Find(&pillarRows).Error; err != nil {
		log.Error("Failed to load project pillars", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to compute statistics")
	}
	byPillar := make(map[string]int64)
	for _, p := range pillarRows {
		for _, pillar := range p.Pillars {
			byPillar[pillar]++
		}
	}

	return response.Success(c, http.StatusOK, echo.Map{
		"total":     total,
		"by_status": byStatus,
		"by_pillar": byPillar,
	})
}
