package model

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db, mock
}

func TestFindUserByEmail(t *testing.T) {
	db, mock := openMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "active", "failed_login_attempts"}).
		AddRow(7, "lena@example.com", "Lena", "Ortiz", true, 0)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("lena@example.com", 1).
		WillReturnRows(rows)

	user, err := FindUserByEmail(db, "lena@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if user.ID != 7 || user.Email != "lena@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindUserByEmailNotFound(t *testing.T) {
	db, mock := openMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("ghost@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	if _, err := FindUserByEmail(db, "ghost@example.com"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestFindUserByResetToken(t *testing.T) {
	db, mock := openMockDB(t)

	expiry := time.Now().Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "email", "reset_token", "reset_expiry"}).
		AddRow(3, "mira@example.com", "tok-123", expiry)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE reset_token = \$1`).
		WithArgs("tok-123", 1).
		WillReturnRows(rows)

	user, err := FindUserByResetToken(db, "tok-123")
	if err != nil {
		t.Fatalf("FindUserByResetToken: %v", err)
	}
	if user.ID != 3 || user.ResetToken == nil || *user.ResetToken != "tok-123" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestCountIndicatorChildren(t *testing.T) {
	db, mock := openMockDB(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "performance_indicators" WHERE parent_id = \$1`).
		WithArgs(uint(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := CountIndicatorChildren(db, 4)
	if err != nil {
		t.Fatalf("CountIndicatorChildren: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 children, got %d", count)
	}
}

func TestCountIndicatorProjectLinks(t *testing.T) {
	db, mock := openMockDB(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "project_indicators" WHERE indicator_id = \$1`).
		WithArgs(uint(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err := CountIndicatorProjectLinks(db, 9)
	if err != nil {
		t.Fatalf("CountIndicatorProjectLinks: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no links, got %d", count)
	}
}

func TestLoadRoleWithPermissions(t *testing.T) {
	db, mock := openMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "roles" WHERE "roles"\."id" = \$1`).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rank", "elevated"}).
			AddRow(2, "manager", 60, false))
	mock.ExpectQuery(`SELECT \* FROM "role_permissions"`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "permission_id"}).
			AddRow(2, 11).
			AddRow(2, 12))
	mock.ExpectQuery(`SELECT \* FROM "permissions"`).
		WithArgs(11, 12).
		WillReturnRows(sqlmock.NewRows([]string{"id", "key"}).
			AddRow(11, "project:read").
			AddRow(12, "project:update"))

	role, err := LoadRoleWithPermissions(db, 2)
	if err != nil {
		t.Fatalf("LoadRoleWithPermissions: %v", err)
	}
	if role.Name != "manager" || len(role.Permissions) != 2 {
		t.Fatalf("unexpected role: %+v", role)
	}
	keys := role.PermissionKeys()
	if len(keys) != 2 || keys[0] != "project:read" {
		t.Fatalf("unexpected permission keys: %v", keys)
	}
}
