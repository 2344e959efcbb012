package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDeactivateUserRejectsElevatedTarget(t *testing.T) {
	Init(testConfig(), nil, nil)
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role_id", "active"}).
			AddRow(9, "root@example.com", 1, true))
	mock.ExpectQuery(`SELECT \* FROM "roles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rank", "elevated"}).
			AddRow(1, "admin", 80, true))

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/users/9/deactivate", "")
	c.SetParamNames("id")
	c.SetParamValues("9")

	if err := DeactivateUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for elevated target, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "elevated accounts cannot be modified") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	// No UPDATE may have been issued against the record
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAnonymizeUserRejectsElevatedTarget(t *testing.T) {
	Init(testConfig(), nil, nil)
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role_id", "active"}).
			AddRow(9, "root@example.com", 1, true))
	mock.ExpectQuery(`SELECT \* FROM "roles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rank", "elevated"}).
			AddRow(1, "superadmin", 100, true))

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/users/9/anonymize", "")
	c.SetParamNames("id")
	c.SetParamValues("9")

	if err := AnonymizeUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for elevated target, got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
