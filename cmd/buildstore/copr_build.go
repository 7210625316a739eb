package main

import (
	"context"
	"fmt"
	"time"

	"github.com/packit/buildstore/pkg/store"
	"github.com/spf13/cobra"
)

// buildRef selects a build either by primary key or by Copr build id and
// target.
type buildRef struct {
	id      uint
	buildID string
	target  string
}

func (r buildRef) validate() error {
	switch {
	case r.id != 0 && r.buildID != "":
		return fmt.Errorf("--id and --build-id are mutually exclusive")
	case r.id != 0:
		return nil
	case r.buildID == "":
		return fmt.Errorf("either --id or --build-id with --target is required")
	case r.target == "":
		return fmt.Errorf("--target is required with --build-id")
	}

	return nil
}

func (r buildRef) lookup(ctx context.Context, repo store.Repository) (*store.CoprBuild, error) {
	if r.id != 0 {
		return repo.GetCoprBuildByID(ctx, r.id)
	}

	return repo.GetCoprBuildByBuildID(ctx, store.BuildID(r.buildID), r.target)
}

func addBuildRefFlags(cmd *cobra.Command, ref *buildRef) {
	cmd.Flags().UintVar(&ref.id, "id", 0, "Build record id")
	cmd.Flags().StringVar(&ref.buildID, "build-id", "", "Copr build id")
	cmd.Flags().StringVar(&ref.target, "target", "", "Build target, e.g. fedora-rawhide-x86_64")
}

var (
	createReq    store.CoprBuildRequest
	createSRPMID uint

	getRef      buildRef
	listStatus  string
	statusRef   buildRef
	newStatus   string
	logsURLRef  buildRef
	newLogsURL  string
	startedRef  buildRef
	startedAt   string
	finishedRef buildRef
	finishedAt  string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Manage recorded Copr builds",
}

var buildCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a Copr build unless its build id and target are already recorded",
	RunE:  runBuildCreate,
}

var buildGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a recorded Copr build",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getRef.validate(); err != nil {
			return err
		}

		return withStore(cmd.Context(), func(s store.Store) error {
			build, err := getRef.lookup(cmd.Context(), s)
			if err != nil {
				return err
			}

			return writeYAML(cmd.OutOrStdout(), build)
		})
	},
}

var buildListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded Copr builds, newest first",
	RunE:  runBuildList,
}

var buildSetStatusCmd = &cobra.Command{
	Use:   "set-status",
	Short: "Set the status of a recorded Copr build",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateBuild(cmd, statusRef, func(ctx context.Context, tx store.Repository, b *store.CoprBuild) error {
			return tx.SetCoprBuildStatus(ctx, b, newStatus)
		})
	},
}

var buildSetLogsURLCmd = &cobra.Command{
	Use:   "set-logs-url",
	Short: "Set the build logs URL of a recorded Copr build",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateBuild(cmd, logsURLRef, func(ctx context.Context, tx store.Repository, b *store.CoprBuild) error {
			return tx.SetCoprBuildLogsURL(ctx, b, newLogsURL)
		})
	},
}

var buildMarkStartedCmd = &cobra.Command{
	Use:   "mark-started",
	Short: "Record when a Copr build started",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTimeFlag(startedAt)
		if err != nil {
			return err
		}

		return updateBuild(cmd, startedRef, func(ctx context.Context, tx store.Repository, b *store.CoprBuild) error {
			return tx.SetCoprBuildStartTime(ctx, b, t)
		})
	},
}

var buildMarkFinishedCmd = &cobra.Command{
	Use:   "mark-finished",
	Short: "Record when a Copr build finished",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTimeFlag(finishedAt)
		if err != nil {
			return err
		}

		return updateBuild(cmd, finishedRef, func(ctx context.Context, tx store.Repository, b *store.CoprBuild) error {
			return tx.SetCoprBuildEndTime(ctx, b, t)
		})
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.AddCommand(
		buildCreateCmd,
		buildGetCmd,
		buildListCmd,
		buildSetStatusCmd,
		buildSetLogsURLCmd,
		buildMarkStartedCmd,
		buildMarkFinishedCmd,
	)

	f := buildCreateCmd.Flags()
	f.IntVar(&createReq.PRID, "pr-id", 0, "Pull request number on the forge")
	f.StringVar(&createReq.Namespace, "namespace", "", "Project namespace")
	f.StringVar(&createReq.RepoName, "repo", "", "Project repository name")
	f.StringVar((*string)(&createReq.BuildID), "build-id", "", "Copr build id")
	f.StringVar(&createReq.Target, "target", "", "Build target")
	f.StringVar(&createReq.CommitSHA, "commit-sha", "", "Commit the build was made from")
	f.StringVar(&createReq.WebURL, "web-url", "", "URL of the build in the Copr web UI")
	f.StringVar(&createReq.Status, "status", "pending", "Initial build status")
	f.StringVar(&createReq.Owner, "owner", "", "Copr project owner")
	f.StringVar(&createReq.ProjectName, "project-name", "", "Copr project name")
	f.UintVar(&createSRPMID, "srpm-build-id", 0, "Id of the recorded SRPM build")

	for _, name := range []string{"pr-id", "namespace", "repo", "build-id", "target", "srpm-build-id"} {
		_ = buildCreateCmd.MarkFlagRequired(name)
	}

	addBuildRefFlags(buildGetCmd, &getRef)

	buildListCmd.Flags().StringVar(&listStatus, "status", "", "Only list builds in this status")

	addBuildRefFlags(buildSetStatusCmd, &statusRef)
	buildSetStatusCmd.Flags().StringVar(&newStatus, "status", "", "New build status")
	_ = buildSetStatusCmd.MarkFlagRequired("status")

	addBuildRefFlags(buildSetLogsURLCmd, &logsURLRef)
	buildSetLogsURLCmd.Flags().StringVar(&newLogsURL, "url", "", "Build logs URL")
	_ = buildSetLogsURLCmd.MarkFlagRequired("url")

	addBuildRefFlags(buildMarkStartedCmd, &startedRef)
	buildMarkStartedCmd.Flags().StringVar(&startedAt, "time", "", "RFC 3339 start time (default now)")

	addBuildRefFlags(buildMarkFinishedCmd, &finishedRef)
	buildMarkFinishedCmd.Flags().StringVar(&finishedAt, "time", "", "RFC 3339 finish time (default now)")
}

func runBuildCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withStore(ctx, func(s store.Store) error {
		var build *store.CoprBuild

		err := s.Session(ctx, func(tx store.Repository) error {
			srpm, err := tx.GetSRPMBuildByID(ctx, createSRPMID)
			if err != nil {
				return err
			}

			req := createReq
			req.SRPMBuild = srpm

			build, err = tx.GetOrCreateCoprBuild(ctx, &req)

			return err
		})
		if err != nil {
			return err
		}

		return writeYAML(cmd.OutOrStdout(), build)
	})
}

func runBuildList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withStore(ctx, func(s store.Store) error {
		var (
			builds []store.CoprBuild
			err    error
		)

		if listStatus != "" {
			builds, err = s.ListCoprBuildsByStatus(ctx, listStatus)
		} else {
			builds, err = s.ListCoprBuilds(ctx)
		}

		if err != nil {
			return err
		}

		return writeYAML(cmd.OutOrStdout(), builds)
	})
}

// updateBuild looks the build up and applies fn in one session, then
// prints the updated build.
func updateBuild(
	cmd *cobra.Command,
	ref buildRef,
	fn func(ctx context.Context, tx store.Repository, b *store.CoprBuild) error,
) error {
	if err := ref.validate(); err != nil {
		return err
	}

	ctx := cmd.Context()

	return withStore(ctx, func(s store.Store) error {
		var build *store.CoprBuild

		err := s.Session(ctx, func(tx store.Repository) error {
			var err error

			build, err = ref.lookup(ctx, tx)
			if err != nil {
				return err
			}

			return fn(ctx, tx, build)
		})
		if err != nil {
			return err
		}

		log.WithField("id", build.ID).Info("Updated copr build")

		return writeYAML(cmd.OutOrStdout(), build)
	})
}

func parseTimeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", value, err)
	}

	return t, nil
}
