package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/internal/model"
	"github.com/suteetoe/perftrack/pkg/blobstore"
	"github.com/suteetoe/perftrack/pkg/config"
	"github.com/suteetoe/perftrack/pkg/database"
	"github.com/suteetoe/perftrack/pkg/mailer"
	"github.com/suteetoe/perftrack/prometheus"
)

var (
	cfg   *config.Config
	mail  *mailer.Client
	blobs *blobstore.Client
)

// Init wires the handlers to configuration and the external collaborators
func Init(c *config.Config, mailClient *mailer.Client, blobClient *blobstore.Client) {
	cfg = c
	mail = mailClient
	blobs = blobClient
}

// MetricsHandler serves the Prometheus scrape endpoint
func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}

// parseIDParam parses the :id path parameter
func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// parseFormID parses a numeric ID from a form or query value
func parseFormID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// tenantLeaderID resolves the leader of the given tenant, or nil when the
// record has no tenant or the tenant has no leader. Used by the ownership
// checks.
func tenantLeaderID(tenantID *uint) *uint {
	if tenantID == nil {
		return nil
	}
	var tenant model.Tenant
	if result := database.GetDB().Select("leader_id").First(&tenant, *tenantID); result.Error != nil {
		return nil
	}
	return tenant.LeaderID
}
