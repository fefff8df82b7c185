package audit

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/testutil"
)

func TestDispatcher_WritesEvents(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(New(db), logger)

	churchID, recordID := uint(3), uint(42)
	d.Dispatch(Event{
		ChurchID: &churchID,
		Actor:    "kari",
		Action:   ActionUpdate,
		Table:    "members",
		RecordID: &recordID,
		Old:      map[string]any{"full_name": "Kari"},
		New:      map[string]any{"full_name": "Kari N."},
		IP:       "10.0.0.1",
	})
	d.Close()

	var entries []models.AuditLog
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "UPDATE", got.Action)
	assert.Equal(t, "members", got.Table)
	assert.Equal(t, uint(42), *got.RecordID)
	assert.JSONEq(t, `{"full_name":"Kari"}`, got.OldValues)
	assert.JSONEq(t, `{"full_name":"Kari N."}`, got.NewValues)
	assert.Equal(t, "10.0.0.1", got.IPAddress)
}

func TestDispatcher_WriteFailureIsSwallowed(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	logger, hook := test.NewNullLogger()
	d := NewDispatcher(New(db), logger)

	assert.NotPanics(t, func() {
		d.Dispatch(Event{Actor: "kari", Action: ActionDelete, Table: "members"})
	})
	d.Close()

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "audit write failed", hook.LastEntry().Message)
}

func TestDispatcher_DispatchAfterCloseDrops(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	logger, hook := test.NewNullLogger()
	d := NewDispatcher(New(db), logger)
	d.Close()

	d.Dispatch(Event{Action: ActionCreate})
	d.Close()

	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
