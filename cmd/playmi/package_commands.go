package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"playmi/internal/fault"
	"playmi/internal/packaging"
)

func newProgressCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <package-id>",
		Short: "Show generation progress or terminal status of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices(cmd.Context(), cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := svc.orchestrator.Progress(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.InFlight {
				fmt.Fprintf(out, "Status: %s\n", report.Status)
				fmt.Fprintf(out, "Progress: %d%% (%d/%d files)\n",
					report.Progress.Percent,
					report.Progress.FilesProcessed,
					report.Progress.TotalFiles)
				if report.Progress.Message != "" {
					fmt.Fprintf(out, "Message: %s\n", report.Progress.Message)
				}
				return nil
			}

			fmt.Fprintf(out, "Status: %s\n", report.Status)
			if report.Status.HasArchive() {
				fmt.Fprintf(out, "Archive size: %s\n", humanize.Bytes(uint64(report.ArchiveSizeBytes)))
				fmt.Fprintf(out, "Checksum: %s\n", report.ArchiveChecksumSHA256)
			}
			if report.Message != "" {
				fmt.Fprintf(out, "Message: %s\n", report.Message)
			}
			return nil
		},
	}
}

func newDownloadCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <package-id>",
		Short: "Resolve the archive path of a finished package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices(cmd.Context(), cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			info, err := svc.orchestrator.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Archive: %s\n", info.ArchivePath)
			fmt.Fprintf(out, "Suggested filename: %s\n", info.SuggestedFilename)
			return nil
		},
	}
}

func newDeleteCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <package-id>",
		Short: "Delete a package record and its archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices(cmd.Context(), cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.orchestrator.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted package %s\n", args[0])
			return nil
		},
	}
}

func newSetStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <package-id> <status>",
		Short: "Apply a lifecycle transition (install confirmation, expiry, revival)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := packaging.ParseStatus(args[1])
			if !ok {
				return fault.NewValidation(fault.FieldViolation{
					Field:  "status",
					Reason: fmt.Sprintf("unknown status %q", args[1]),
				})
			}

			svc, cleanup, err := openServices(cmd.Context(), cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.orchestrator.UpdateStatus(cmd.Context(), args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Package %s is now %s\n", args[0], status)
			return nil
		},
	}
}

func newCancelCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <package-id>",
		Short: "Request cancellation of an in-flight generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices(cmd.Context(), cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.orchestrator.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for %s\n", args[0])
			return nil
		},
	}
}

func newListCommand(cmdCtx *commandContext) *cobra.Command {
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []packaging.Status
			for _, raw := range statusFilters {
				status, ok := packaging.ParseStatus(raw)
				if !ok {
					return fault.NewValidation(fault.FieldViolation{
						Field:  "status",
						Reason: fmt.Sprintf("unknown status %q", raw),
					})
				}
				statuses = append(statuses, status)
			}

			svc, cleanup, err := openServices(cmd.Context(), cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			packages, err := svc.orchestrator.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(packages) == 0 {
				fmt.Fprintln(out, "No packages found")
				return nil
			}

			rows := make([][]string, 0, len(packages))
			for _, pkg := range packages {
				size := ""
				if pkg.ArchiveSizeBytes > 0 {
					size = humanize.Bytes(uint64(pkg.ArchiveSizeBytes))
				}
				rows = append(rows, []string{
					pkg.ID,
					strconv.FormatInt(pkg.CompanyID, 10),
					pkg.Name,
					pkg.Version,
					string(pkg.Status),
					size,
					strconv.Itoa(pkg.DownloadCount),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Company", "Name", "Version", "Status", "Size", "Downloads"},
				rows, 1, 5, 6))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statusFilters, "status", nil,
		"Only show packages in these statuses ("+joinStatuses()+")")
	return cmd
}

func newStatsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show package counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices(cmd.Context(), cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := svc.orchestrator.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(stats))
			total := 0
			for _, status := range packaging.AllStatuses() {
				count, ok := stats[status]
				if !ok {
					continue
				}
				total += count
				rows = append(rows, []string{string(status), strconv.Itoa(count)})
			}
			rows = append(rows, []string{"total", strconv.Itoa(total)})

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, 1))
			return nil
		},
	}
}

func joinStatuses() string {
	all := packaging.AllStatuses()
	names := make([]string, 0, len(all))
	for _, status := range all {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}
