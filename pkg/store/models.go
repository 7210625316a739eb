package store

import (
	"strconv"
	"time"
)

// BuildID is the identifier Copr assigns to a build. Copr reports it as a
// number in its messages and as a string in API responses; both forms
// refer to the same build.
type BuildID string

// IntBuildID returns the BuildID for a numeric Copr build identifier.
func IntBuildID(id int64) BuildID {
	return BuildID(strconv.FormatInt(id, 10))
}

// String implements fmt.Stringer.
func (b BuildID) String() string {
	return string(b)
}

// GitProject is a repository on a git forge, identified by namespace and name.
type GitProject struct {
	ID        uint   `gorm:"primaryKey" json:"id" yaml:"id"`
	Namespace string `gorm:"column:namespace;not null;uniqueIndex:idx_git_project_namespace_repo" json:"namespace" yaml:"namespace"`
	RepoName  string `gorm:"column:repo_name;not null;uniqueIndex:idx_git_project_namespace_repo" json:"repo_name" yaml:"repo_name"`
}

// TableName implements gorm's tabler interface.
func (GitProject) TableName() string { return "git_project" }

// PullRequest is a pull request opened against a GitProject.
type PullRequest struct {
	ID        uint        `gorm:"primaryKey" json:"id" yaml:"id"`
	PRID      int         `gorm:"column:pr_id;not null;uniqueIndex:idx_pull_request_pr_project" json:"pr_id" yaml:"pr_id"`
	ProjectID uint        `gorm:"column:project_id;not null;uniqueIndex:idx_pull_request_pr_project" json:"project_id" yaml:"project_id"`
	Project   *GitProject `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty" yaml:"project,omitempty"`
}

// TableName implements gorm's tabler interface.
func (PullRequest) TableName() string { return "pull_request" }

// SRPMBuild holds the output of building the source RPM submitted to Copr.
type SRPMBuild struct {
	ID        uint      `gorm:"primaryKey" json:"id" yaml:"id"`
	Logs      string    `gorm:"column:logs;type:text" json:"logs" yaml:"logs"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// TableName implements gorm's tabler interface.
func (SRPMBuild) TableName() string { return "srpm_build" }

// CoprBuild is a single Copr build of a pull request for one target.
// PullRequestID references pull_request.id, not the forge PR number; the
// number is available as PullRequest.PRID.
type CoprBuild struct {
	ID            uint         `gorm:"primaryKey" json:"id" yaml:"id"`
	PullRequestID uint         `gorm:"column:pr_id;not null;index" json:"pr_id" yaml:"pr_id"`
	PullRequest   *PullRequest `gorm:"foreignKey:PullRequestID;references:ID;constraint:OnDelete:CASCADE" json:"pull_request,omitempty" yaml:"pull_request,omitempty"`
	SRPMBuildID   uint         `gorm:"column:srpm_build_id;not null;index" json:"srpm_build_id" yaml:"srpm_build_id"`
	SRPMBuild     *SRPMBuild   `gorm:"foreignKey:SRPMBuildID;references:ID" json:"srpm_build,omitempty" yaml:"srpm_build,omitempty"`

	BuildID     BuildID `gorm:"column:build_id;not null;uniqueIndex:idx_copr_build_build_target" json:"build_id" yaml:"build_id"`
	Target      string  `gorm:"column:target;not null;uniqueIndex:idx_copr_build_build_target" json:"target" yaml:"target"`
	CommitSHA   string  `gorm:"column:commit_sha" json:"commit_sha" yaml:"commit_sha"`
	WebURL      string  `gorm:"column:web_url" json:"web_url" yaml:"web_url"`
	Owner       string  `gorm:"column:owner" json:"owner,omitempty" yaml:"owner,omitempty"`
	ProjectName string  `gorm:"column:project_name" json:"project_name,omitempty" yaml:"project_name,omitempty"`

	Status       string  `gorm:"column:status;index" json:"status" yaml:"status"`
	BuildLogsURL *string `gorm:"column:build_logs_url" json:"build_logs_url,omitempty" yaml:"build_logs_url,omitempty"`

	BuildSubmittedTime time.Time  `gorm:"column:build_submitted_time;not null" json:"build_submitted_time" yaml:"build_submitted_time"`
	BuildStartTime     *time.Time `gorm:"column:build_start_time" json:"build_start_time,omitempty" yaml:"build_start_time,omitempty"`
	BuildFinishedTime  *time.Time `gorm:"column:build_finished_time" json:"build_finished_time,omitempty" yaml:"build_finished_time,omitempty"`
}

// TableName implements gorm's tabler interface.
func (CoprBuild) TableName() string { return "copr_build" }

// CoprBuildRequest describes a build to record with GetOrCreateCoprBuild.
type CoprBuildRequest struct {
	PRID        int
	BuildID     BuildID
	CommitSHA   string
	RepoName    string
	Namespace   string
	WebURL      string
	Target      string
	Status      string
	Owner       string
	ProjectName string
	SRPMBuild   *SRPMBuild
}
