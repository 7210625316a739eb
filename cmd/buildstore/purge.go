package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/packit/buildstore/pkg/store"
	"github.com/spf13/cobra"
)

var forcePurge bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove all recorded Copr builds, pull requests and git projects",
	Long: `Remove all Copr builds, pull requests and git projects from the database.
SRPM builds are kept. This is meant for resetting test and staging databases.`,
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().BoolVarP(&forcePurge, "force", "f", false, "Skip confirmation prompt")
}

func runPurge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withStore(ctx, func(s store.Store) error {
		builds, err := s.ListCoprBuilds(ctx)
		if err != nil {
			return err
		}

		prs, err := s.CountPullRequests(ctx)
		if err != nil {
			return err
		}

		if len(builds) == 0 && prs == 0 {
			log.Info("No build records found")

			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nCopr builds to be removed: %d\n", len(builds))
		fmt.Fprintf(out, "Pull requests to be removed: %d\n\n", prs)

		if !forcePurge {
			ok, err := confirm(cmd.InOrStdin(), out, "Are you sure you want to remove these records? [y/N] ")
			if err != nil {
				return err
			}

			if !ok {
				log.Info("Purge cancelled")

				return nil
			}
		}

		if err := s.Purge(ctx); err != nil {
			return err
		}

		log.Info("Purge completed")

		return nil
	})
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading response: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))

	return response == "y" || response == "yes", nil
}
