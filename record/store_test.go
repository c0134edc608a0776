package record

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSanitizeName(t *testing.T) {
	require.Equal(t, "my_file", SanitizeName("my file"))
	require.Equal(t, "a-b_c", SanitizeName("  a-b/c  "))
	require.Equal(t, "data", SanitizeName("///"))
	require.Equal(t, "data", SanitizeName(""))
}

func TestTextFile(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AppendLine("bot1", "leads", " +7900 "))
	require.NoError(t, store.AppendLine("bot1", "leads", ""))
	require.NoError(t, store.AppendLine("bot1", "leads", "+7901"))

	data, err := os.ReadFile(store.TextPath("bot1", "leads"))
	require.NoError(t, err)
	require.Equal(t, "+7900\n+7901\n", string(data))

	row, found, err := store.SearchLine("bot1", "leads", "+7900")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]string{"value": "+7900"}, row)

	_, found, err = store.SearchLine("bot1", "leads", "+7999")
	require.NoError(t, err)
	require.False(t, found)

	// A file that was never written is simply a miss.
	_, found, err = store.SearchLine("bot1", "nothing", "x")
	require.NoError(t, err)
	require.False(t, found)
}

func TestExcelFileColumnGrowth(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AppendColumn("bot1", "orders", "Name", "Ann"))
	require.NoError(t, store.AppendColumn("bot1", "orders", "Phone", "555"))

	data, err := os.ReadFile(store.ExcelPath("bot1", "orders"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, "Name,Phone", lines[0])
	require.Equal(t, "Ann,", lines[1])
	require.Equal(t, ",555", lines[2])
}

func TestExcelSearch(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AppendColumn("bot1", "orders", "Name", "Ann"))
	require.NoError(t, store.AppendColumn("bot1", "orders", "Name", "Bob"))

	row, found, err := store.SearchColumn("bot1", "orders", "Name", "ann")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Ann", row["Name"])

	_, found, err = store.SearchColumn("bot1", "orders", "Name", "carol")
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = store.SearchColumn("bot1", "orders", "Missing", "Ann")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDefaultColumnName(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AppendColumn("bot1", "misc", "  ", "thing"))

	row, found, err := store.SearchColumn("bot1", "misc", "Value", "thing")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "thing", row["Value"])
}

func TestPathsAreNamespacedPerBot(t *testing.T) {
	store := newTestStore(t)
	require.NotEqual(t, store.ExcelPath("bot1", "x"), store.ExcelPath("bot2", "x"))
	require.True(t, strings.HasSuffix(store.ExcelPath("bot1", "x"), "bot1__x.csv"))
	require.True(t, strings.HasSuffix(store.TextPath("bot1", "x"), "bot1__x.txt"))
}
