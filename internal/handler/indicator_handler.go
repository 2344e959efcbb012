package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/internal/hierarchy"
	"github.com/suteetoe/perftrack/internal/model"
	"github.com/suteetoe/perftrack/internal/response"
	"github.com/suteetoe/perftrack/pkg/database"
	"github.com/suteetoe/perftrack/pkg/logger"
	"github.com/suteetoe/perftrack/prometheus"
	"go.uber.org/zap"
)

// indicatorEntries loads the whole indicator table in the traversal form
func indicatorEntries() ([]hierarchy.Entry, map[uint]model.PerformanceIndicator, error) {
	var indicators []model.PerformanceIndicator
	if result := database.GetDB().Find(&indicators); result.Error != nil {
		return nil, nil, result.Error
	}

	entries := make([]hierarchy.Entry, 0, len(indicators))
	byID := make(map[uint]model.PerformanceIndicator, len(indicators))
	for _, ind := range indicators {
		entries = append(entries, hierarchy.Entry{ID: ind.ID, ParentID: ind.ParentID, Name: ind.Name})
		byID[ind.ID] = ind
	}
	return entries, byID, nil
}

// CreateIndicator creates a performance indicator, optionally under a parent
func CreateIndicator(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordIndicatorOperation("create")

	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		ParentID    *uint    `json:"parent_id,omitempty"`
		MinScore    *float64 `json:"min_score,omitempty"`
		MaxScore    *float64 `json:"max_score,omitempty"`
		Pillar      *string  `json:"pillar,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse indicator creation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if req.Name == "" {
		return response.Error(c, http.StatusBadRequest, "name is required")
	}
	if req.MinScore != nil && req.MaxScore != nil && *req.MinScore > *req.MaxScore {
		return response.Error(c, http.StatusBadRequest, "min_score exceeds max_score")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	database.GetDB().Model(&model.PerformanceIndicator{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		log.Warn("Indicator name already exists", zap.String("name", req.Name))
		return response.Error(c, http.StatusConflict, "indicator name already exists")
	}

	if req.ParentID != nil {
		var parent model.PerformanceIndicator
		if result := database.GetDB().First(&parent, *req.ParentID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "parent indicator does not exist")
		}
	}

	indicator := model.PerformanceIndicator{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		MinScore:    req.MinScore,
		MaxScore:    req.MaxScore,
		Pillar:      req.Pillar,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&indicator); result.Error != nil {
		log.Error("Failed to create indicator", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "indicator creation failed")
	}

	log.Info("Indicator created",
		zap.String("name", indicator.Name),
		zap.Uint("id", indicator.ID))
	return response.Success(c, http.StatusCreated, indicator)
}

// ListIndicators returns the flat indicator list, sorted by name unless the
// caller overrides the sort field
func ListIndicators(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordIndicatorOperation("list")

	sortField := "name"
	switch c.QueryParam("sort") {
	case "", "name":
	case "created_at":
		sortField = "created_at"
	case "pillar":
		sortField = "pillar"
	default:
		return response.Error(c, http.StatusBadRequest, "invalid sort field")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB().Model(&model.PerformanceIndicator{})
	if pillar := c.QueryParam("pillar"); pillar != "" {
		query = query.Where("pillar = ?", pillar)
	}

	var indicators []model.PerformanceIndicator
	if result := query.Order(sortField).Find(&indicators); result.Error != nil {
		log.Error("Failed to list indicators", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to list indicators")
	}

	return response.Success(c, http.StatusOK, indicators)
}

// GetIndicator retrieves one indicator
func GetIndicator(c echo.Context) error {
	prometheus.RecordIndicatorOperation("read")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid indicator ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var indicator model.PerformanceIndicator
	if result := database.GetDB().First(&indicator, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "indicator not found")
	}

	return response.Success(c, http.StatusOK, indicator)
}

// UpdateIndicator patches an indicator. Reparenting is rejected when the
// proposed parent is the node itself or any of its descendants.
func UpdateIndicator(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordIndicatorOperation("update")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid indicator ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var indicator model.PerformanceIndicator
	if result := database.GetDB().First(&indicator, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "indicator not found")
	}

	var req struct {
		Name        *string  `json:"name,omitempty"`
		Description *string  `json:"description,omitempty"`
		ParentID    *uint    `json:"parent_id,omitempty"`
		ClearParent bool     `json:"clear_parent,omitempty"`
		MinScore    *float64 `json:"min_score,omitempty"`
		MaxScore    *float64 `json:"max_score,omitempty"`
		Pillar      *string  `json:"pillar,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse indicator update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	updates := map[string]interface{}{}

	if req.Name != nil && *req.Name != indicator.Name {
		var count int64
		database.GetDB().Model(&model.PerformanceIndicator{}).Where("name = ? AND id <> ?", *req.Name, indicator.ID).Count(&count)
		if count > 0 {
			return response.Error(c, http.StatusConflict, "indicator name already exists")
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.MinScore != nil || req.MaxScore != nil {
		// Bounds are validated as the pair that would be stored, patched
		// values combined with whatever the record already carries
		lower := indicator.MinScore
		if req.MinScore != nil {
			lower = req.MinScore
		}
		upper := indicator.MaxScore
		if req.MaxScore != nil {
			upper = req.MaxScore
		}
		if lower != nil && upper != nil && *lower > *upper {
			return response.Error(c, http.StatusBadRequest, "min_score exceeds max_score")
		}
		if req.MinScore != nil {
			updates["min_score"] = *req.MinScore
		}
		if req.MaxScore != nil {
			updates["max_score"] = *req.MaxScore
		}
	}
	if req.Pillar != nil {
		updates["pillar"] = *req.Pillar
	}

	if req.ClearParent {
		updates["parent_id"] = nil
	} else if req.ParentID != nil {
		var parent model.PerformanceIndicator
		if result := database.GetDB().First(&parent, *req.ParentID); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "parent indicator does not exist")
		}

		entries, _, err := indicatorEntries()
		if err != nil {
			log.Error("Failed to load indicator tree", zap.Error(err))
			return response.Error(c, http.StatusInternalServerError, "failed to load indicator tree")
		}
		if hierarchy.WouldCycle(entries, indicator.ID, *req.ParentID) {
			log.Warn("Circular indicator reparenting rejected",
				zap.Uint("id", indicator.ID),
				zap.Uint("parent_id", *req.ParentID))
			return response.Error(c, http.StatusBadRequest, "circular parent reference")
		}
		updates["parent_id"] = *req.ParentID
	}

	if len(updates) == 0 {
		return response.Success(c, http.StatusOK, indicator)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&indicator).Updates(updates).Error; err != nil {
		log.Error("Failed to update indicator", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "indicator update failed")
	}

	log.Info("Indicator updated", zap.Uint("id", indicator.ID))
	return response.Success(c, http.StatusOK, indicator)
}

// DeleteIndicator hard-deletes a leaf indicator with no project links
func DeleteIndicator(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordIndicatorOperation("delete")

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid indicator ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var indicator model.PerformanceIndicator
	if result := database.GetDB().First(&indicator, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "indicator not found")
	}

	children, err := model.CountIndicatorChildren(database.GetDB(), indicator.ID)
	if err != nil {
		log.Error("Failed to count children", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "indicator deletion failed")
	}
	if children > 0 {
		return response.Error(c, http.StatusBadRequest, "indicator has children")
	}

	links, err := model.CountIndicatorProjectLinks(database.GetDB(), indicator.ID)
	if err != nil {
		log.Error("Failed to count project links", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "indicator deletion failed")
	}
	if links > 0 {
		return response.Error(c, http.StatusBadRequest, "indicator has project links")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&indicator).Error; err != nil {
		log.Error("Failed to delete indicator", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "indicator deletion failed")
	}

	log.Info("Indicator deleted", zap.Uint("id", indicator.ID))
	return response.Success(c, http.StatusOK, echo.Map{"id": indicator.ID, "message": "indicator deleted"})
}

// indicatorTree is the JSON form of one assembled subtree
type indicatorTree struct {
	model.PerformanceIndicator
	Children []*indicatorTree `json:"children"`
}

func decorate(tree *hierarchy.Tree, byID map[uint]model.PerformanceIndicator) *indicatorTree {
	root := &indicatorTree{
		PerformanceIndicator: byID[tree.ID],
		Children:             make([]*indicatorTree, 0, len(tree.Children)),
	}

	type frame struct {
		src *hierarchy.Tree
		dst *indicatorTree
	}
	stack := []frame{{src: tree, dst: root}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range current.src.Children {
			node := &indicatorTree{
				PerformanceIndicator: byID[child.ID],
				Children:             make([]*indicatorTree, 0, len(child.Children)),
			}
			current.dst.Children = append(current.dst.Children, node)
			stack = append(stack, frame{src: child, dst: node})
		}
	}
	return root
}

// GetIndicatorHierarchy returns the indicator forest. Depth is unlimited by
// default; ?depth= caps the number of expanded levels.
func GetIndicatorHierarchy(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordIndicatorOperation("hierarchy")

	depth := 0
	if raw := c.QueryParam("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return response.Error(c, http.StatusBadRequest, "invalid depth")
		}
		depth = parsed
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	entries, byID, err := indicatorEntries()
	if err != nil {
		log.Error("Failed to load indicator tree", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to load indicator tree")
	}

	roots := hierarchy.Build(entries, depth)
	result := make([]*indicatorTree, 0, len(roots))
	for _, root := range roots {
		result = append(result, decorate(root, byID))
	}

	return response.Success(c, http.StatusOK, result)
}
