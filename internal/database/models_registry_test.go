package database

import (
	"testing"

	modelspkg "codelearn/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesSubmissionLog(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.Submission); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include Submission")
}

func TestPersistentModels_CoverEveryMigratedTable(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.Len(t, ms, 3)
	require.Contains(t, ms[0].Up, "CREATE TABLE IF NOT EXISTS contest_submissions")
	require.Contains(t, ms[2].Up, "CREATE TABLE IF NOT EXISTS notifications")

	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.Notification); ok {
			found = true
		}
	}
	require.True(t, found, "PersistentModels should include Notification")
}
