package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetOrCreateCoprBuild records a Copr build. If a build with the same build
// id and target is already recorded it is returned unchanged, provided it
// belongs to the requested pull request; otherwise ErrConflict is returned.
// A new build resolves or creates its pull request and project first and is
// inserted with the submission time set to now.
func (r *repository) GetOrCreateCoprBuild(
	ctx context.Context, req *CoprBuildRequest,
) (*CoprBuild, error) {
	if err := validateCoprBuildRequest(req); err != nil {
		return nil, err
	}

	var build *CoprBuild

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := getCoprBuild(tx, "build_id = ? AND target = ?", string(req.BuildID), req.Target)
		switch {
		case err == nil:
			if err := checkCoprBuildOwner(existing, req); err != nil {
				return err
			}

			build = existing

			return nil
		case !errors.Is(err, ErrNotFound):
			return err
		}

		pr, err := getOrCreatePullRequest(tx, req.PRID, req.Namespace, req.RepoName)
		if err != nil {
			return err
		}

		row := &CoprBuild{
			PullRequestID:      pr.ID,
			SRPMBuildID:        req.SRPMBuild.ID,
			BuildID:            req.BuildID,
			Target:             req.Target,
			CommitSHA:          req.CommitSHA,
			WebURL:             req.WebURL,
			Owner:              req.Owner,
			ProjectName:        req.ProjectName,
			Status:             req.Status,
			BuildSubmittedTime: time.Now().UTC(),
		}

		result := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "build_id"}, {Name: "target"}},
			DoNothing: true,
		}).Create(row)
		if result.Error != nil {
			return fmt.Errorf("creating copr build %s: %w", req.BuildID, result.Error)
		}

		build, err = getCoprBuild(tx, "build_id = ? AND target = ?", string(req.BuildID), req.Target)
		if err != nil {
			return err
		}

		// Another writer may have recorded the build between the lookup
		// and the insert.
		if build.PullRequestID != pr.ID {
			return checkCoprBuildOwner(build, req)
		}

		if result.RowsAffected > 0 {
			r.log.WithFields(logrus.Fields{
				"build_id": build.BuildID,
				"target":   build.Target,
				"pr_id":    req.PRID,
			}).Debug("Created copr build")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return build, nil
}

// checkCoprBuildOwner fails when build is recorded for a pull request other
// than the one req names.
func checkCoprBuildOwner(build *CoprBuild, req *CoprBuildRequest) error {
	pr := build.PullRequest
	if pr != nil && pr.Project != nil &&
		pr.PRID == req.PRID &&
		pr.Project.Namespace == req.Namespace &&
		pr.Project.RepoName == req.RepoName {
		return nil
	}

	return fmt.Errorf(
		"copr build %s for %s belongs to another pull request than %s/%s#%d: %w",
		req.BuildID, req.Target, req.Namespace, req.RepoName, req.PRID, ErrConflict,
	)
}

func (r *repository) GetCoprBuildByID(
	ctx context.Context, id uint,
) (*CoprBuild, error) {
	return getCoprBuild(r.db.WithContext(ctx), "id = ?", id)
}

// GetCoprBuildByBuildID returns the build Copr knows as buildID for target.
func (r *repository) GetCoprBuildByBuildID(
	ctx context.Context, buildID BuildID, target string,
) (*CoprBuild, error) {
	return getCoprBuild(r.db.WithContext(ctx),
		"build_id = ? AND target = ?", string(buildID), target)
}

// ListCoprBuilds returns all builds, newest first.
func (r *repository) ListCoprBuilds(ctx context.Context) ([]CoprBuild, error) {
	var builds []CoprBuild
	if err := preloadCoprBuild(r.db.WithContext(ctx)).
		Order("id DESC").
		Find(&builds).Error; err != nil {
		return nil, fmt.Errorf("listing copr builds: %w", err)
	}

	return builds, nil
}

// ListCoprBuildsByStatus returns the builds in the given status, newest first.
func (r *repository) ListCoprBuildsByStatus(
	ctx context.Context, status string,
) ([]CoprBuild, error) {
	var builds []CoprBuild
	if err := preloadCoprBuild(r.db.WithContext(ctx)).
		Where("status = ?", status).
		Order("id DESC").
		Find(&builds).Error; err != nil {
		return nil, fmt.Errorf("listing copr builds by status: %w", err)
	}

	return builds, nil
}

func (r *repository) SetCoprBuildStatus(
	ctx context.Context, build *CoprBuild, status string,
) error {
	if err := r.updateCoprBuild(ctx, build, "status", status); err != nil {
		return err
	}

	build.Status = status

	return nil
}

func (r *repository) SetCoprBuildLogsURL(
	ctx context.Context, build *CoprBuild, url string,
) error {
	if err := r.updateCoprBuild(ctx, build, "build_logs_url", url); err != nil {
		return err
	}

	build.BuildLogsURL = &url

	return nil
}

func (r *repository) SetCoprBuildStartTime(
	ctx context.Context, build *CoprBuild, t time.Time,
) error {
	t = t.UTC()
	if err := r.updateCoprBuild(ctx, build, "build_start_time", t); err != nil {
		return err
	}

	build.BuildStartTime = &t

	return nil
}

func (r *repository) SetCoprBuildEndTime(
	ctx context.Context, build *CoprBuild, t time.Time,
) error {
	t = t.UTC()
	if err := r.updateCoprBuild(ctx, build, "build_finished_time", t); err != nil {
		return err
	}

	build.BuildFinishedTime = &t

	return nil
}

// updateCoprBuild persists a single column of an existing build.
func (r *repository) updateCoprBuild(
	ctx context.Context, build *CoprBuild, column string, value any,
) error {
	if build == nil || build.ID == 0 {
		return invalidArgument("copr build must be persisted before updating %s", column)
	}

	result := r.db.WithContext(ctx).
		Model(&CoprBuild{}).
		Where("id = ?", build.ID).
		Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("updating copr build %s: %w", column, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("updating copr build %d: %w", build.ID, ErrNotFound)
	}

	r.log.WithFields(logrus.Fields{
		"id":     build.ID,
		"column": column,
	}).Debug("Updated copr build")

	return nil
}

func validateCoprBuildRequest(req *CoprBuildRequest) error {
	if req == nil {
		return invalidArgument("copr build request is nil")
	}

	if err := validatePullRequestKey(req.PRID, req.Namespace, req.RepoName); err != nil {
		return err
	}

	if req.BuildID == "" {
		return invalidArgument("build id must not be empty")
	}

	if req.Target == "" {
		return invalidArgument("target must not be empty")
	}

	if req.SRPMBuild == nil || req.SRPMBuild.ID == 0 {
		return invalidArgument("copr build %s needs a stored srpm build", req.BuildID)
	}

	return nil
}

func preloadCoprBuild(db *gorm.DB) *gorm.DB {
	return db.Preload("PullRequest.Project").Preload("SRPMBuild")
}

func getCoprBuild(db *gorm.DB, query string, args ...any) (*CoprBuild, error) {
	var build CoprBuild
	if err := preloadCoprBuild(db).
		Where(query, args...).
		First(&build).Error; err != nil {
		return nil, wrapLookup("getting copr build", err)
	}

	return &build, nil
}
