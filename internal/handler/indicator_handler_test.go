package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/suteetoe/perftrack/internal/hierarchy"
	"github.com/suteetoe/perftrack/internal/model"
)

func TestUpdateIndicatorRejectsInvertedBounds(t *testing.T) {
	mock := newMockDB(t)

	// Patching only min_score must still respect the stored max_score
	mock.ExpectQuery(`SELECT \* FROM "performance_indicators" WHERE "performance_indicators"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "max_score"}).
			AddRow(4, "Uptime", 10.0))

	c, rec := newJSONContext(t, http.MethodPatch, "/api/v1/indicators/4", `{"min_score":20}`)
	c.SetParamNames("id")
	c.SetParamValues("4")

	if err := UpdateIndicator(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted bounds, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "min_score exceeds max_score") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateIndicatorAcceptsBoundsPatchedTogether(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "performance_indicators" WHERE "performance_indicators"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "min_score", "max_score"}).
			AddRow(4, "Uptime", 0.0, 10.0))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "performance_indicators" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newJSONContext(t, http.MethodPatch, "/api/v1/indicators/4", `{"min_score":50,"max_score":100}`)
	c.SetParamNames("id")
	c.SetParamValues("4")

	if err := UpdateIndicator(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a consistent pair, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDecorateDeepChain(t *testing.T) {
	const depth = 100000

	byID := make(map[uint]model.PerformanceIndicator, depth)
	root := &hierarchy.Tree{Entry: hierarchy.Entry{ID: 1, Name: "root"}}
	byID[1] = model.PerformanceIndicator{ID: 1, Name: "root"}

	current := root
	for id := uint(2); id <= depth; id++ {
		child := &hierarchy.Tree{Entry: hierarchy.Entry{ID: id}}
		byID[id] = model.PerformanceIndicator{ID: id}
		current.Children = []*hierarchy.Tree{child}
		current = child
	}

	node := decorate(root, byID)

	var levels int
	for node != nil {
		levels++
		if node.ID != uint(levels) {
			t.Fatalf("expected indicator %d at level %d, got %d", levels, levels, node.ID)
		}
		if len(node.Children) == 0 {
			node = nil
		} else {
			node = node.Children[0]
		}
	}
	if levels != depth {
		t.Fatalf("expected %d levels, got %d", depth, levels)
	}
}
