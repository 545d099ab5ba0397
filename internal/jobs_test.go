package internal

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jointwt/logingate/internal/members"
	"github.com/jointwt/logingate/internal/session"
)

func TestSessionStatsJob(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	store := session.NewMemoryStore(session.ExpireNever, 0)
	repo := members.NewRepository()

	m, err := repo.Save(&members.Member{LoginID: "test", Password: "test!"})
	require.NoError(t, err)

	for i := 0; i < 1200; i++ {
		_, err := store.Create(m)
		require.NoError(t, err)
	}

	NewSessionStatsJob(NewConfig(), store, repo).Run()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "1,200 active sessions for 1 members", entry.Message)
	assert.Equal(t, 1200, entry.Data["sessions"])
	assert.Equal(t, "none", entry.Data["policy"])
}

func TestJobsSchedules(t *testing.T) {
	for name, spec := range Jobs {
		assert.NotEmpty(t, spec.Schedule, name)
		assert.NotNil(t, spec.Factory, name)
	}
	assert.Contains(t, Jobs, "SessionStats")
}
