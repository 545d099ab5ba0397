package internal

import (
	humanize "github.com/dustin/go-humanize"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"

	"github.com/jointwt/logingate/internal/members"
	"github.com/jointwt/logingate/internal/session"
)

// JobSpec ...
type JobSpec struct {
	Schedule string
	Factory  JobFactory
}

func NewJobSpec(schedule string, factory JobFactory) JobSpec {
	return JobSpec{schedule, factory}
}

var Jobs map[string]JobSpec

func init() {
	Jobs = map[string]JobSpec{
		"SessionStats": NewJobSpec("@every 5m", NewSessionStatsJob),
	}
}

type JobFactory func(conf *Config, store *session.MemoryStore, repo *members.Repository) cron.Job

type SessionStatsJob struct {
	conf  *Config
	store *session.MemoryStore
	repo  *members.Repository
}

func NewSessionStatsJob(conf *Config, store *session.MemoryStore, repo *members.Repository) cron.Job {
	return &SessionStatsJob{conf: conf, store: store, repo: repo}
}

func (job *SessionStatsJob) Run() {
	sessions := job.store.Count()
	registered := job.repo.Len()

	log.WithFields(log.Fields{
		"sessions": sessions,
		"members":  registered,
		"policy":   job.store.Policy().String(),
	}).Infof(
		"%s active sessions for %s members",
		humanize.Comma(int64(sessions)), humanize.Comma(int64(registered)),
	)
}
