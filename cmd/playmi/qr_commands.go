package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"playmi/internal/wifiqr"
)

func newQRCommand(cmdCtx *commandContext) *cobra.Command {
	qrCmd := &cobra.Command{
		Use:   "qr",
		Short: "WiFi onboarding QR codes",
	}

	qrCmd.AddCommand(newQRSingleCommand(cmdCtx))
	qrCmd.AddCommand(newQRBulkCommand(cmdCtx))
	qrCmd.AddCommand(newQRPasswordCommand())

	return qrCmd
}

func newQRSingleCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		companyID int64
		busNumber string
		ssid      string
		password  string
		hidden    bool
		size      int
		level     string
		withLogo  bool
	)

	cmd := &cobra.Command{
		Use:   "single",
		Short: "Generate one WiFi QR code",
		RunE: func(cmd *cobra.Command, args []string) error {
			provisioner, cleanup, err := openProvisioner(cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			code, err := provisioner.GenerateSingle(cmd.Context(), wifiqr.SingleRequest{
				CompanyID: companyID,
				BusNumber: busNumber,
				SSID:      ssid,
				Password:  password,
				Hidden:    hidden,
				Size:      size,
				Level:     level,
				WithLogo:  withLogo,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "QR code %s\n", code.ID)
			fmt.Fprintf(out, "Image: %s\n", code.ImagePath)
			fmt.Fprintf(out, "Portal: %s\n", code.PortalURL)
			return nil
		},
	}

	cmd.Flags().Int64Var(&companyID, "company", 0, "Company id the code belongs to")
	cmd.Flags().StringVar(&busNumber, "bus", "", "Bus number (empty = company-wide code)")
	cmd.Flags().StringVar(&ssid, "ssid", "", "WiFi network name")
	cmd.Flags().StringVar(&password, "password", "", "WiFi password (min 8 characters)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Mark the WiFi network as hidden")
	cmd.Flags().IntVar(&size, "size", 0, "Image size in pixels (0 = configured default)")
	cmd.Flags().StringVar(&level, "level", "", "Error-correction level L, M, Q or H (empty = configured default)")
	cmd.Flags().BoolVar(&withLogo, "logo", false, "Overlay the company logo (requires level Q or H)")

	return cmd
}

func newQRBulkCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		companyID int64
		count     int
		ssid      string
		password  string
		hidden    bool
		size      int
		level     string
		withLogo  bool
	)

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Generate sequentially numbered QR codes for a fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			provisioner, cleanup, err := openProvisioner(cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := provisioner.GenerateBulk(cmd.Context(), wifiqr.BulkRequest{
				CompanyID: companyID,
				Count:     count,
				SSID:      ssid,
				Password:  password,
				Hidden:    hidden,
				Size:      size,
				Level:     level,
				WithLogo:  withLogo,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, code := range report.Generated {
				fmt.Fprintf(out, "%s  %s\n", code.BusNumber, code.ImagePath)
			}
			for _, item := range report.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s  FAILED: %v\n", item.BusNumber, item.Err)
			}
			fmt.Fprintf(out, "Generated %d of %d codes\n", len(report.Generated), count)

			if len(report.Errors) > 0 {
				return fmt.Errorf("%d of %d codes failed", len(report.Errors), count)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&companyID, "company", 0, "Company id the codes belong to")
	cmd.Flags().IntVar(&count, "count", 0, "How many codes to generate")
	cmd.Flags().StringVar(&ssid, "ssid", "", "WiFi network name shared by the fleet")
	cmd.Flags().StringVar(&password, "password", "", "WiFi password (min 8 characters)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Mark the WiFi network as hidden")
	cmd.Flags().IntVar(&size, "size", 0, "Image size in pixels (0 = configured default)")
	cmd.Flags().StringVar(&level, "level", "", "Error-correction level L, M, Q or H (empty = configured default)")
	cmd.Flags().BoolVar(&withLogo, "logo", false, "Overlay the company logo (requires level Q or H)")

	return cmd
}

func newQRPasswordCommand() *cobra.Command {
	var extended bool
	var temporal bool

	cmd := &cobra.Command{
		Use:         "password",
		Short:       "Generate a WiFi password",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if temporal {
				password, expires, err := wifiqr.GenerateTemporalPassword()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, password)
				fmt.Fprintf(out, "Expires: %s\n", expires.Format("2006-01-02"))
				return nil
			}

			password, err := wifiqr.GenerateSecurePassword(extended)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, password)
			return nil
		},
	}

	cmd.Flags().BoolVar(&extended, "extended", false, "Generate a 16-character password instead of 12")
	cmd.Flags().BoolVar(&temporal, "temporal", false, "Generate a readable password with a 30-day expiry")

	return cmd
}
