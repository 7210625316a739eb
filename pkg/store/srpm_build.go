package store

import (
	"context"
	"fmt"
)

// CreateSRPMBuild stores the logs of a finished SRPM build.
func (r *repository) CreateSRPMBuild(
	ctx context.Context, logs string,
) (*SRPMBuild, error) {
	build := &SRPMBuild{Logs: logs}
	if err := r.db.WithContext(ctx).Create(build).Error; err != nil {
		return nil, fmt.Errorf("creating srpm build: %w", err)
	}

	r.log.WithField("srpm_build_id", build.ID).Debug("Created SRPM build")

	return build, nil
}

func (r *repository) GetSRPMBuildByID(
	ctx context.Context, id uint,
) (*SRPMBuild, error) {
	var build SRPMBuild
	if err := r.db.WithContext(ctx).First(&build, id).Error; err != nil {
		return nil, wrapLookup("getting srpm build by id", err)
	}

	return &build, nil
}
