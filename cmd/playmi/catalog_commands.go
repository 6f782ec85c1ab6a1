package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"playmi/internal/catalog"
	"playmi/internal/fault"
	"playmi/internal/fileutil"
)

func newCatalogCommand(cmdCtx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage companies, contents and advertising",
	}

	catalogCmd.AddCommand(newAddCompanyCommand(cmdCtx))
	catalogCmd.AddCommand(newAddContentCommand(cmdCtx))
	catalogCmd.AddCommand(newAddAdCommand(cmdCtx))

	return catalogCmd
}

func openCatalog(cmdCtx *commandContext) (*catalog.Store, func(), error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func newAddCompanyCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		name      string
		logoPath  string
		primary   string
		secondary string
	)

	cmd := &cobra.Command{
		Use:   "add-company",
		Short: "Register a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fault.NewValidation(fault.FieldViolation{Field: "name", Reason: "must not be empty"})
			}

			store, cleanup, err := openCatalog(cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			company, err := store.InsertCompany(cmd.Context(), &catalog.Company{
				Name:           name,
				LogoPath:       logoPath,
				PrimaryColor:   primary,
				SecondaryColor: secondary,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Company %d: %s\n", company.ID, company.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Company name")
	cmd.Flags().StringVar(&logoPath, "logo", "", "Path to the company logo image")
	cmd.Flags().StringVar(&primary, "primary-color", "", "Primary portal color (hex)")
	cmd.Flags().StringVar(&secondary, "secondary-color", "", "Secondary portal color (hex)")

	return cmd
}

func newAddContentCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		contentType string
		title       string
		path        string
		duration    int
	)

	cmd := &cobra.Command{
		Use:   "add-content",
		Short: "Register a media file",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, ok := catalog.ParseContentType(contentType)
			if !ok {
				return fault.NewValidation(fault.FieldViolation{
					Field:  "type",
					Reason: fmt.Sprintf("unknown content type %q", contentType),
				})
			}

			info, err := os.Stat(path)
			if err != nil {
				return fault.NewIO("stat content", path, err)
			}
			checksum, err := fileutil.SHA256File(path)
			if err != nil {
				return err
			}

			store, cleanup, err := openCatalog(cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			content, err := store.InsertContent(cmd.Context(), &catalog.Content{
				Type:            parsed,
				Title:           title,
				Path:            path,
				SizeBytes:       info.Size(),
				ChecksumSHA256:  checksum,
				DurationSeconds: duration,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Content %d: %s (%s)\n", content.ID, content.Title, content.Type)
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "type", "", "Content type: movie, music or game")
	cmd.Flags().StringVar(&title, "title", "", "Content title")
	cmd.Flags().StringVar(&path, "path", "", "Path to the media file")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in seconds, when applicable")

	return cmd
}

func newAddAdCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		kind     string
		title    string
		path     string
		duration int
	)

	cmd := &cobra.Command{
		Use:   "add-ad",
		Short: "Register an advertising asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, ok := catalog.ParseAdKind(kind)
			if !ok {
				return fault.NewValidation(fault.FieldViolation{
					Field:  "kind",
					Reason: fmt.Sprintf("unknown advertising kind %q", kind),
				})
			}

			store, cleanup, err := openCatalog(cmdCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			ad, err := store.InsertAdvertising(cmd.Context(), &catalog.Advertising{
				Kind:            parsed,
				Title:           title,
				Path:            path,
				DurationSeconds: duration,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Advertising %d: %s (%s)\n", ad.ID, ad.Title, ad.Kind)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Slot kind: preroll, midroll or banner")
	cmd.Flags().StringVar(&title, "title", "", "Asset title")
	cmd.Flags().StringVar(&path, "path", "", "Path to the asset file")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in seconds, when applicable")

	return cmd
}
