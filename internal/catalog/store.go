package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"playmi/internal/config"
	"playmi/internal/storage"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store persists catalog records in SQLite and implements Repository.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "catalog.db")
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := storage.Migrate(context.Background(), db, migrationFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const companyColumns = "id, name, logo_path, primary_color, secondary_color"

// Company returns the company record, or nil when the id is unknown.
func (s *Store) Company(ctx context.Context, id int64) (*Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	company, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

// InsertCompany creates a company record and returns it with its assigned id.
func (s *Store) InsertCompany(ctx context.Context, company *Company) (*Company, error) {
	if company == nil {
		return nil, errors.New("company is nil")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO companies (name, logo_path, primary_color, secondary_color) VALUES (?, ?, ?, ?)`,
		company.Name,
		nullableString(company.LogoPath),
		nullableString(company.PrimaryColor),
		nullableString(company.SecondaryColor),
	)
	if err != nil {
		return nil, fmt.Errorf("insert company: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Company(ctx, id)
}

const contentColumns = "id, type, title, path, size_bytes, checksum_sha256, duration_seconds"

// Content returns the content record, or nil when the id is unknown.
func (s *Store) Content(ctx context.Context, id int64) (*Content, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE id = ?`, id)
	content, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return content, nil
}

// ResolveContents resolves every id, preserving input order, and reports the
// ids with no matching record.
func (s *Store) ResolveContents(ctx context.Context, ids []int64) ([]*Content, []int64, error) {
	resolved := make([]*Content, 0, len(ids))
	var missing []int64
	for _, id := range ids {
		content, err := s.Content(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if content == nil {
			missing = append(missing, id)
			continue
		}
		resolved = append(resolved, content)
	}
	return resolved, missing, nil
}

// InsertContent creates a content record and returns it with its assigned id.
func (s *Store) InsertContent(ctx context.Context, content *Content) (*Content, error) {
	if content == nil {
		return nil, errors.New("content is nil")
	}
	if _, ok := ParseContentType(string(content.Type)); !ok {
		return nil, fmt.Errorf("unknown content type %q", content.Type)
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO contents (type, title, path, size_bytes, checksum_sha256, duration_seconds)
         VALUES (?, ?, ?, ?, ?, ?)`,
		string(content.Type),
		content.Title,
		content.Path,
		content.SizeBytes,
		nullableString(content.ChecksumSHA256),
		content.DurationSeconds,
	)
	if err != nil {
		return nil, fmt.Errorf("insert content: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Content(ctx, id)
}

const adColumns = "id, kind, title, path, duration_seconds"

// Advertising returns the advertising record, or nil when the id is unknown.
func (s *Store) Advertising(ctx context.Context, id int64) (*Advertising, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+adColumns+` FROM advertising WHERE id = ?`, id)
	ad, err := scanAdvertising(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get advertising: %w", err)
	}
	return ad, nil
}

// InsertAdvertising creates an advertising record and returns it with its assigned id.
func (s *Store) InsertAdvertising(ctx context.Context, ad *Advertising) (*Advertising, error) {
	if ad == nil {
		return nil, errors.New("advertising is nil")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO advertising (kind, title, path, duration_seconds) VALUES (?, ?, ?, ?)`,
		string(ad.Kind),
		ad.Title,
		ad.Path,
		ad.DurationSeconds,
	)
	if err != nil {
		return nil, fmt.Errorf("insert advertising: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Advertising(ctx, id)
}

func scanCompany(scanner interface{ Scan(dest ...any) error }) (*Company, error) {
	var (
		id        int64
		name      string
		logoPath  sql.NullString
		primary   sql.NullString
		secondary sql.NullString
	)
	if err := scanner.Scan(&id, &name, &logoPath, &primary, &secondary); err != nil {
		return nil, err
	}
	return &Company{
		ID:             id,
		Name:           name,
		LogoPath:       logoPath.String,
		PrimaryColor:   primary.String,
		SecondaryColor: secondary.String,
	}, nil
}

func scanContent(scanner interface{ Scan(dest ...any) error }) (*Content, error) {
	var (
		id       int64
		typeStr  string
		title    string
		path     string
		size     int64
		checksum sql.NullString
		duration sql.NullInt64
	)
	if err := scanner.Scan(&id, &typeStr, &title, &path, &size, &checksum, &duration); err != nil {
		return nil, err
	}
	contentType, ok := ParseContentType(typeStr)
	if !ok {
		return nil, fmt.Errorf("content %d has unknown type %q", id, typeStr)
	}
	return &Content{
		ID:              id,
		Type:            contentType,
		Title:           title,
		Path:            path,
		SizeBytes:       size,
		ChecksumSHA256:  checksum.String,
		DurationSeconds: int(duration.Int64),
	}, nil
}

func scanAdvertising(scanner interface{ Scan(dest ...any) error }) (*Advertising, error) {
	var (
		id       int64
		kind     string
		title    string
		path     string
		duration sql.NullInt64
	)
	if err := scanner.Scan(&id, &kind, &title, &path, &duration); err != nil {
		return nil, err
	}
	return &Advertising{
		ID:              id,
		Kind:            AdKind(kind),
		Title:           title,
		Path:            path,
		DurationSeconds: int(duration.Int64),
	}, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
