package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/suteetoe/perftrack/internal/auth"
)

func TestProjectStatisticsGroupsByStatusAndPillar(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT status, count\(\*\) as count FROM "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("Framing", 2).
			AddRow("Completed", 1))
	mock.ExpectQuery(`SELECT "pillars" FROM "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"pillars"}).
			AddRow(`["Safety","Operating"]`).
			AddRow(`["Safety"]`).
			AddRow(nil))

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/projects/statistics", "")
	c.Set("principal", &auth.Principal{UserID: 1, Elevated: true})

	if err := GetProjectStatistics(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Total    int64 `json:"total"`
			ByStatus []struct {
				Status string `json:"status"`
				Count  int64  `json:"count"`
			} `json:"by_status"`
			ByPillar map[string]int64 `json:"by_pillar"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if envelope.Data.Total != 3 {
		t.Fatalf("expected total 3, got %d", envelope.Data.Total)
	}
	if len(envelope.Data.ByStatus) != 2 {
		t.Fatalf("expected 2 status groups, got %d", len(envelope.Data.ByStatus))
	}
	if envelope.Data.ByPillar["Safety"] != 2 || envelope.Data.ByPillar["Operating"] != 1 {
		t.Fatalf("unexpected pillar counts %v", envelope.Data.ByPillar)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
