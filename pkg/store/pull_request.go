package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetOrCreateGitProject returns the project keyed by namespace and repo
// name, inserting it first if it does not exist.
func (r *repository) GetOrCreateGitProject(
	ctx context.Context, namespace, repoName string,
) (*GitProject, error) {
	if namespace == "" || repoName == "" {
		return nil, invalidArgument(
			"namespace %q and repo name %q must not be empty", namespace, repoName,
		)
	}

	return getOrCreateGitProject(r.db.WithContext(ctx), namespace, repoName)
}

// GetOrCreatePullRequest returns the pull request prID of the project
// namespace/repoName. The project and the pull request are created in one
// transaction when missing, so a failure leaves neither behind.
func (r *repository) GetOrCreatePullRequest(
	ctx context.Context, prID int, namespace, repoName string,
) (*PullRequest, error) {
	if err := validatePullRequestKey(prID, namespace, repoName); err != nil {
		return nil, err
	}

	var pr *PullRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pr, err = getOrCreatePullRequest(tx, prID, namespace, repoName)

		return err
	})
	if err != nil {
		return nil, err
	}

	return pr, nil
}

func (r *repository) GetPullRequestByID(
	ctx context.Context, id uint,
) (*PullRequest, error) {
	var pr PullRequest
	if err := r.db.WithContext(ctx).
		Preload("Project").
		First(&pr, id).Error; err != nil {
		return nil, wrapLookup("getting pull request by id", err)
	}

	return &pr, nil
}

func (r *repository) CountPullRequests(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&PullRequest{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting pull requests: %w", err)
	}

	return count, nil
}

func validatePullRequestKey(prID int, namespace, repoName string) error {
	if prID <= 0 {
		return invalidArgument("pull request id must be positive, got %d", prID)
	}

	if namespace == "" || repoName == "" {
		return invalidArgument(
			"namespace %q and repo name %q must not be empty", namespace, repoName,
		)
	}

	return nil
}

// getOrCreateGitProject inserts the project unless the unique index on
// (namespace, repo_name) already holds it, then reads the row back. The
// insert never fails on a concurrent duplicate.
func getOrCreateGitProject(
	db *gorm.DB, namespace, repoName string,
) (*GitProject, error) {
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "repo_name"}},
		DoNothing: true,
	}).Create(&GitProject{Namespace: namespace, RepoName: repoName}).Error; err != nil {
		return nil, fmt.Errorf("creating git project %s/%s: %w", namespace, repoName, err)
	}

	var project GitProject
	if err := db.
		Where("namespace = ? AND repo_name = ?", namespace, repoName).
		First(&project).Error; err != nil {
		return nil, wrapLookup("getting git project", err)
	}

	return &project, nil
}

func getOrCreatePullRequest(
	db *gorm.DB, prID int, namespace, repoName string,
) (*PullRequest, error) {
	project, err := getOrCreateGitProject(db, namespace, repoName)
	if err != nil {
		return nil, err
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pr_id"}, {Name: "project_id"}},
		DoNothing: true,
	}).Create(&PullRequest{PRID: prID, ProjectID: project.ID}).Error; err != nil {
		return nil, fmt.Errorf("creating pull request %d: %w", prID, err)
	}

	var pr PullRequest
	if err := db.
		Where("pr_id = ? AND project_id = ?", prID, project.ID).
		First(&pr).Error; err != nil {
		return nil, wrapLookup("getting pull request", err)
	}

	pr.Project = project

	return &pr, nil
}
