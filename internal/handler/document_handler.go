package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/internal/middleware"
	"github.com/suteetoe/perftrack/internal/model"
	"github.com/suteetoe/perftrack/internal/response"
	"github.com/suteetoe/perftrack/pkg/database"
	"github.com/suteetoe/perftrack/pkg/logger"
	"github.com/suteetoe/perftrack/prometheus"
	"go.uber.org/zap"
)

// UploadDocument sends the file to the blob provider and records its
// metadata
func UploadDocument(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("upload")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		log.Error("Missing file in upload request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "file is required")
	}

	title := c.FormValue("title")
	if title == "" {
		title = fileHeader.Filename
	}

	var tenantID *uint
	if raw := c.FormValue("tenant_id"); raw != "" {
		id, err := parseFormID(raw)
		if err != nil {
			return response.Error(c, http.StatusBadRequest, "invalid tenant_id")
		}
		var tenant model.Tenant
		if result := database.GetDB().First(&tenant, id); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "tenant does not exist")
		}
		tenantID = &id
	}

	var projectID *uint
	if raw := c.FormValue("project_id"); raw != "" {
		id, err := parseFormID(raw)
		if err != nil {
			return response.Error(c, http.StatusBadRequest, "invalid project_id")
		}
		var project model.Project
		if result := database.GetDB().First(&project, id); result.Error != nil {
			return response.Error(c, http.StatusBadRequest, "project does not exist")
		}
		if !principal.CanAccessRecord(project.OwnerID, project.TenantID, tenantLeaderID(project.TenantID)) {
			prometheus.RecordAuthError("ownership_denied")
			return response.Error(c, http.StatusForbidden, "access denied")
		}
		projectID = &id
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "unreadable file")
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := uuid.New().String()
	url, err := blobs.Upload(key, contentType, src)
	if err != nil {
		log.Error("Blob upload failed", zap.Error(err))
		return response.Error(c, http.StatusBadGateway, "document upload failed")
	}

	document := model.Document{
		Title:       title,
		Key:         key,
		ContentType: contentType,
		Size:        fileHeader.Size,
		URL:         url,
		OwnerID:     principal.UserID,
		TenantID:    tenantID,
		ProjectID:   projectID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&document); result.Error != nil {
		log.Error("Failed to record document", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "document creation failed")
	}

	log.Info("Document uploaded",
		zap.Uint("id", document.ID),
		zap.String("key", document.Key))
	return response.Success(c, http.StatusCreated, document)
}

// ListDocuments lists documents visible to the caller
func ListDocuments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("list")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB().Model(&model.Document{})
	if !principal.Elevated {
		if principal.TenantID != nil {
			query = query.Where("owner_id = ? OR tenant_id = ?", principal.UserID, *principal.TenantID)
		} else {
			query = query.Where("owner_id = ?", principal.UserID)
		}
	}
	if raw := c.QueryParam("project_id"); raw != "" {
		id, err := parseFormID(raw)
		if err != nil {
			return response.Error(c, http.StatusBadRequest, "invalid project_id")
		}
		query = query.Where("project_id = ?", id)
	}

	var documents []model.Document
	if result := query.Order("created_at desc").Find(&documents); result.Error != nil {
		log.Error("Failed to list documents", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to list documents")
	}

	return response.Success(c, http.StatusOK, documents)
}

// GetDocument retrieves one document record
func GetDocument(c echo.Context) error {
	prometheus.RecordDocumentOperation("read")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid document ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var document model.Document
	if result := database.GetDB().First(&document, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "document not found")
	}

	if !principal.CanAccessRecord(document.OwnerID, document.TenantID, tenantLeaderID(document.TenantID)) {
		prometheus.RecordAuthError("ownership_denied")
		return response.Error(c, http.StatusForbidden, "access denied")
	}

	return response.Success(c, http.StatusOK, document)
}

// DeleteDocument removes the metadata record. The blob itself stays with
// the provider's lifecycle.
func DeleteDocument(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("delete")

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid document ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var document model.Document
	if result := database.GetDB().First(&document, id); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "document not found")
	}

	if !principal.CanAccessRecord(document.OwnerID, document.TenantID, tenantLeaderID(document.TenantID)) {
		prometheus.RecordAuthError("ownership_denied")
		return response.Error(c, http.StatusForbidden, "access denied")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&document).Error; err != nil {
		log.Error("Failed to delete document", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "document deletion failed")
	}

	log.Info("Document deleted", zap.Uint("id", document.ID))
	return response.Success(c, http.StatusOK, echo.Map{"id": document.ID, "message": "document deleted"})
}
