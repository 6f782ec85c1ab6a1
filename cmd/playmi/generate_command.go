package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"playmi/internal/orchestrator"
	"playmi/internal/packaging"
)

const progressPollInterval = time.Second

func newGenerateCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		companyID   int64
		name        string
		version     string
		ssid        string
		password    string
		hidden      bool
		contentIDs  []int64
		prerollID   int64
		midrollID   int64
		bannerIDs   []int64
		licenseDays int
		notes       string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a content package and wait for it to finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, cleanup, err := openServices(ctx, cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			// One bundler per machine; jobs die with the process.
			lock := flock.New(filepath.Join(svc.cfg.Paths.LogDir, "playmi.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another playmi generation is already running on this machine")
			}
			defer func() {
				_ = lock.Unlock()
			}()

			req := orchestrator.GenerateRequest{
				CompanyID:  companyID,
				Name:       name,
				Version:    version,
				SSID:       ssid,
				Password:   password,
				Hidden:     hidden,
				ContentIDs: contentIDs,
				Advertising: packaging.AdvertisingRefs{
					PrerollVideoID: prerollID,
					MidrollVideoID: midrollID,
					BannerIDs:      bannerIDs,
				},
				Notes: notes,
			}
			if licenseDays > 0 {
				expires := time.Now().UTC().AddDate(0, 0, licenseDays)
				req.LicenseExpiresAt = &expires
			}

			packageID, err := svc.orchestrator.Generate(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Package %s generating\n", packageID)

			return waitForPackage(ctx, cmd, svc, packageID)
		},
	}

	cmd.Flags().Int64Var(&companyID, "company", 0, "Company id the package belongs to")
	cmd.Flags().StringVar(&name, "name", "", "Package name")
	cmd.Flags().StringVar(&version, "version", "1.0", "Package version")
	cmd.Flags().StringVar(&ssid, "ssid", "", "WiFi network name baked into the package")
	cmd.Flags().StringVar(&password, "password", "", "WiFi password (min 8 characters)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Mark the WiFi network as hidden")
	cmd.Flags().Int64SliceVar(&contentIDs, "content", nil, "Content ids to include (repeatable)")
	cmd.Flags().Int64Var(&prerollID, "preroll", 0, "Advertising id for the preroll slot")
	cmd.Flags().Int64Var(&midrollID, "midroll", 0, "Advertising id for the midroll slot")
	cmd.Flags().Int64SliceVar(&bannerIDs, "banner", nil, "Advertising ids for banner slots")
	cmd.Flags().IntVar(&licenseDays, "license-days", 0, "License validity in days (0 = no expiry)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes stored with the package")

	return cmd
}

// waitForPackage polls progress until the package reaches a terminal status,
// printing updates along the way. Interrupting the wait requests cancellation
// so the job does not die mid-archive with the claim held.
func waitForPackage(ctx context.Context, cmd *cobra.Command, svc *services, packageID string) error {
	out := cmd.OutOrStdout()
	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	var lastPercent = -1
	for {
		select {
		case <-ctx.Done():
			cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := svc.orchestrator.Cancel(cancelCtx, packageID); err != nil {
				return fmt.Errorf("request cancellation: %w", err)
			}
			fmt.Fprintln(out, "Cancellation requested")
			return ctx.Err()
		case <-ticker.C:
			report, err := svc.orchestrator.Progress(context.Background(), packageID)
			if err != nil {
				return err
			}
			if report.InFlight {
				if report.Progress.Percent != lastPercent {
					lastPercent = report.Progress.Percent
					fmt.Fprintf(out, "  %3d%% (%d/%d) %s\n",
						report.Progress.Percent,
						report.Progress.FilesProcessed,
						report.Progress.TotalFiles,
						report.Progress.Message)
				}
				continue
			}

			switch report.Status {
			case packaging.StatusListo:
				fmt.Fprintln(out, colorize(out, ansiGreen, fmt.Sprintf(
					"Package ready: %s (%s, sha256 %s)",
					packageID,
					humanize.Bytes(uint64(report.ArchiveSizeBytes)),
					report.ArchiveChecksumSHA256)))
				return nil
			case packaging.StatusCancelado:
				fmt.Fprintln(out, "Package generation cancelled")
				return nil
			default:
				fmt.Fprintln(out, colorize(out, ansiRed, "Package generation failed"))
				return fmt.Errorf("package generation failed: %s", report.Message)
			}
		}
	}
}
