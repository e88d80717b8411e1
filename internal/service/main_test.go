package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
)

// newTestDB 每個測試一個獨立的in-memory sqlite
func newTestDB(t *testing.T) db.UnifiedDB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	unified := db.NewUnifiedDB(conn)
	require.NoError(t, unified.InitMigrate())
	return unified
}
