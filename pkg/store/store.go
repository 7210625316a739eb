package store

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/packit/buildstore/pkg/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repository is the set of operations on build records. Every operation
// runs in the scope it was obtained from: directly on a Store each call
// commits on its own, inside Store.Session all calls share one transaction.
type Repository interface {
	// Git projects and pull requests.
	GetOrCreateGitProject(ctx context.Context, namespace, repoName string) (*GitProject, error)
	GetOrCreatePullRequest(ctx context.Context, prID int, namespace, repoName string) (*PullRequest, error)
	GetPullRequestByID(ctx context.Context, id uint) (*PullRequest, error)
	CountPullRequests(ctx context.Context) (int64, error)

	// SRPM builds.
	CreateSRPMBuild(ctx context.Context, logs string) (*SRPMBuild, error)
	GetSRPMBuildByID(ctx context.Context, id uint) (*SRPMBuild, error)

	// Copr builds.
	GetOrCreateCoprBuild(ctx context.Context, req *CoprBuildRequest) (*CoprBuild, error)
	GetCoprBuildByID(ctx context.Context, id uint) (*CoprBuild, error)
	GetCoprBuildByBuildID(ctx context.Context, buildID BuildID, target string) (*CoprBuild, error)
	ListCoprBuilds(ctx context.Context) ([]CoprBuild, error)
	ListCoprBuildsByStatus(ctx context.Context, status string) ([]CoprBuild, error)
	SetCoprBuildStatus(ctx context.Context, build *CoprBuild, status string) error
	SetCoprBuildLogsURL(ctx context.Context, build *CoprBuild, url string) error
	SetCoprBuildStartTime(ctx context.Context, build *CoprBuild, t time.Time) error
	SetCoprBuildEndTime(ctx context.Context, build *CoprBuild, t time.Time) error

	// Purge removes all copr builds, pull requests and git projects.
	Purge(ctx context.Context) error
}

// Store provides persistence for build records.
type Store interface {
	Repository

	Start(ctx context.Context) error
	Stop() error

	// Session runs fn inside a single transaction. The transaction commits
	// when fn returns nil and rolls back when fn returns an error or panics.
	Session(ctx context.Context, fn func(tx Repository) error) error
}

// Compile-time interface checks.
var (
	_ Store      = (*store)(nil)
	_ Repository = (*repository)(nil)
)

// repository implements Repository on top of a *gorm.DB which is either
// the connection pool or an open transaction.
type repository struct {
	log logrus.FieldLogger
	db  *gorm.DB
}

type store struct {
	repository

	cfg *config.DatabaseConfig
}

// NewStore creates a new Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		repository: repository{
			log: log.WithField("component", "store"),
		},
		cfg: cfg,
	}
}

// Start opens the database connection and creates missing tables.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(s.cfg.SQLite.DSN())
	case config.DriverPostgres:
		dialector = postgres.Open(s.cfg.Postgres.DSN())
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(
		&GitProject{},
		&PullRequest{},
		&SRPMBuild{},
		&CoprBuild{},
	); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).Info("Database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

func (s *store) Session(
	ctx context.Context, fn func(tx Repository) error,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{log: s.log, db: tx})
	})
}

// Purge deletes rows child tables first so foreign keys never dangle.
// SRPM builds are left in place.
func (r *repository) Purge(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})

		for _, model := range []any{&CoprBuild{}, &PullRequest{}, &GitProject{}} {
			result := all.Delete(model)
			if result.Error != nil {
				return fmt.Errorf("purging %T: %w", model, result.Error)
			}

			r.log.WithField("model", fmt.Sprintf("%T", model)).
				WithField("count", result.RowsAffected).
				Debug("Purged rows")
		}

		return nil
	})
}
