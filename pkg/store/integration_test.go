//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packit/buildstore/pkg/config"
	"github.com/packit/buildstore/pkg/store"
)

// setupPostgresStore connects to the PostgreSQL instance described by the
// POSTGRESQL_* (or BUILDSTORE_DATABASE_POSTGRES_*) environment variables and
// empties it before and after the test.
func setupPostgresStore(t *testing.T) store.Store {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Database.Driver = config.DriverPostgres
	require.NoError(t, cfg.Validate())

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := store.NewStore(log, &cfg.Database)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Purge(context.Background()))

	t.Cleanup(func() {
		_ = s.Purge(context.Background())
		_ = s.Stop()
	})

	return s
}

func TestPostgres_CoprBuildLifecycle(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()

	build := createCoprBuild(t, s)
	require.NotNil(t, build.PullRequest)

	again := createCoprBuild(t, s)
	assert.Equal(t, build.ID, again.ID)

	require.NoError(t, s.SetCoprBuildStatus(ctx, build, "success"))
	require.NoError(t, s.SetCoprBuildLogsURL(ctx, build, "https://copr.somewhere/123456/logs"))

	got, err := s.GetCoprBuildByBuildID(ctx, "123456", target)
	require.NoError(t, err)
	assert.Equal(t, "success", got.Status)
	require.NotNil(t, got.BuildLogsURL)
	assert.Equal(t, "https://copr.somewhere/123456/logs", *got.BuildLogsURL)
}

func TestPostgres_FailedSessionLeavesNoRows(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()

	_, err := s.GetOrCreateCoprBuild(ctx, &store.CoprBuildRequest{
		PRID:      1,
		BuildID:   "123456",
		RepoName:  "lithium",
		Namespace: "nirvana",
		Target:    target,
		Status:    "pending",
		SRPMBuild: &store.SRPMBuild{ID: 4242},
	})
	require.Error(t, err)

	count, err := s.CountPullRequests(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	createCoprBuild(t, s)

	count, err = s.CountPullRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
