package option

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func sortSQL(t *testing.T, s QuerySortBy) string {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:optiontest?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		DryRun: true,
	})
	require.NoError(t, err)

	var rows []map[string]any
	tx := WithSortBy(s)(db.Table("things")).Find(&rows)
	require.NoError(t, tx.Error)
	return tx.Statement.SQL.String()
}

func TestWithSortByDefaultsToCreatedAt(t *testing.T) {
	require.Contains(t, sortSQL(t, QuerySortBy{OrderBy: "desc"}), "ORDER BY created_at DESC")
}

func TestWithSortByRejectsUnlistedColumn(t *testing.T) {
	// no allow-list means created_at is the only sortable column
	require.NotContains(t, sortSQL(t, QuerySortBy{SortBy: "price"}), "ORDER BY")
}

func TestWithSortByAllowList(t *testing.T) {
	allow := map[string]bool{"price": true}

	require.Contains(t, sortSQL(t, QuerySortBy{SortBy: "price", Allow: allow}), "ORDER BY price ASC")
	require.NotContains(t, sortSQL(t, QuerySortBy{SortBy: "name", Allow: allow}), "ORDER BY")
	require.NotContains(t, sortSQL(t, QuerySortBy{SortBy: "created_at", Allow: allow}), "ORDER BY")
}
