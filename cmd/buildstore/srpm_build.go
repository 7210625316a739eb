package main

import (
	"fmt"
	"io"
	"os"

	"github.com/packit/buildstore/pkg/store"
	"github.com/spf13/cobra"
)

var (
	srpmLogsFile string
	srpmID       uint
)

var srpmCmd = &cobra.Command{
	Use:   "srpm",
	Short: "Manage recorded SRPM builds",
}

var srpmCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record an SRPM build with its logs",
	Long:  `Record an SRPM build. Logs are read from --logs-file, or from stdin when it is "-".`,
	RunE:  runSRPMCreate,
}

var srpmGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a recorded SRPM build",
	RunE:  runSRPMGet,
}

func init() {
	rootCmd.AddCommand(srpmCmd)
	srpmCmd.AddCommand(srpmCreateCmd, srpmGetCmd)

	srpmCreateCmd.Flags().StringVar(&srpmLogsFile, "logs-file", "-", "File holding the build logs")
	srpmGetCmd.Flags().UintVar(&srpmID, "id", 0, "SRPM build id")

	_ = srpmGetCmd.MarkFlagRequired("id")
}

func runSRPMCreate(cmd *cobra.Command, args []string) error {
	logs, err := readLogs(cmd.InOrStdin(), srpmLogsFile)
	if err != nil {
		return err
	}

	return withStore(cmd.Context(), func(s store.Store) error {
		build, err := s.CreateSRPMBuild(cmd.Context(), logs)
		if err != nil {
			return err
		}

		return writeYAML(cmd.OutOrStdout(), build)
	})
}

func runSRPMGet(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(s store.Store) error {
		build, err := s.GetSRPMBuildByID(cmd.Context(), srpmID)
		if err != nil {
			return err
		}

		return writeYAML(cmd.OutOrStdout(), build)
	})
}

func readLogs(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading logs from stdin: %w", err)
		}

		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading logs file: %w", err)
	}

	return string(data), nil
}
