package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nimasrn/review-runner/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDB struct {
	*pg.DB
	rawDB *gorm.DB
}

// setupTestDB opens a private shared-cache sqlite database with the schema of
// every entity.
func setupTestDB(t *testing.T) *testDB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(Entities()...)
	require.NoError(t, err)

	return &testDB{
		DB:    pg.New(db, db),
		rawDB: db,
	}
}
