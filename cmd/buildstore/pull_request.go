package main

import (
	"github.com/packit/buildstore/pkg/store"
	"github.com/spf13/cobra"
)

var (
	prID        int
	prNamespace string
	prRepoName  string
)

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Manage recorded pull requests",
}

var prGetOrCreateCmd = &cobra.Command{
	Use:   "get-or-create",
	Short: "Record a pull request and its git project unless already recorded",
	RunE:  runPRGetOrCreate,
}

func init() {
	rootCmd.AddCommand(prCmd)
	prCmd.AddCommand(prGetOrCreateCmd)

	prGetOrCreateCmd.Flags().IntVar(&prID, "pr-id", 0, "Pull request number on the forge")
	prGetOrCreateCmd.Flags().StringVar(&prNamespace, "namespace", "", "Project namespace")
	prGetOrCreateCmd.Flags().StringVar(&prRepoName, "repo", "", "Project repository name")

	for _, name := range []string{"pr-id", "namespace", "repo"} {
		_ = prGetOrCreateCmd.MarkFlagRequired(name)
	}
}

func runPRGetOrCreate(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(s store.Store) error {
		pr, err := s.GetOrCreatePullRequest(cmd.Context(), prID, prNamespace, prRepoName)
		if err != nil {
			return err
		}

		return writeYAML(cmd.OutOrStdout(), pr)
	})
}
