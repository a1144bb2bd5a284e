package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyExport = `{
  "historyItems": [
    {"id": 1, "menuId": "dev", "content": "배포 스크립트 정리", "status": "pending", "createdAt": "2024-03-01T09:00:00Z"},
    {"id": 2, "menuId": "work", "content": "주간 보고", "status": "completed", "createdAt": "2024-03-02T09:00:00Z"}
  ],
  "userSettings": {"subMenus": {"dev": ["배포"]}},
  "features": [{"id": "f1", "name": "Login", "progress": 10}]
}`

func TestImportTransferAndCheck(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	require.NoError(t, st.UpsertUser(ctx, &models.User{ID: "old", Email: "old@example.com", Name: "Old"}))
	require.NoError(t, st.UpsertUser(ctx, &models.User{ID: "new", Email: "new@example.com", Name: "New"}))

	var out bytes.Buffer
	require.NoError(t, runImport(ctx, st, &out, "old", strings.NewReader(legacyExport)))
	assert.Contains(t, out.String(), "Imported 2 history items and 1 features for old")

	out.Reset()
	require.NoError(t, runTransfer(ctx, st, &out, "old", "new"))
	assert.Contains(t, out.String(), "Transferred 2 notes and 1 features from old to new")

	out.Reset()
	require.NoError(t, runCheckUsers(ctx, st, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "EMAIL")
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		switch fields[0] {
		case "new":
			assert.Equal(t, []string{"new", "new@example.com", "New", "2", "1", "true"}, fields)
		case "old":
			assert.Equal(t, []string{"old", "old@example.com", "Old", "0", "0", "false"}, fields)
		default:
			t.Fatalf("unexpected row %q", line)
		}
	}

	out.Reset()
	require.NoError(t, runCheckSettings(ctx, st, &out, nil))
	assert.Contains(t, out.String(), "--- new ---")
	assert.Contains(t, out.String(), "배포")

	out.Reset()
	require.NoError(t, runCheckSettings(ctx, st, &out, []string{"nobody"}))
	assert.Equal(t, "--- nobody ---\nNot found\n", out.String())
}

func TestImportRejectsBadJSON(t *testing.T) {
	var out bytes.Buffer
	err := runImport(context.Background(), memstore.New(), &out, "u1", strings.NewReader("{"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode export")
}
