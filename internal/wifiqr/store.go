package wifiqr

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"playmi/internal/config"
	"playmi/internal/fault"
	"playmi/internal/storage"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store manages QR code persistence and per-company bus-number counters.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the QR database and applies migrations.
func OpenStore(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "qr.db")
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

// ReserveBusNumbers atomically reserves count sequential bus numbers for a
// company and returns the first reserved number. The reservation is a single
// read-increment statement so two concurrent bulk calls can never receive
// overlapping ranges.
func (s *Store) ReserveBusNumbers(ctx context.Context, companyID int64, count int) (int64, error) {
	if count <= 0 {
		return 0, errors.New("count must be positive")
	}

	var next int64
	row := s.db.QueryRowContext(
		ctx,
		`INSERT INTO bus_counters (company_id, next_number) VALUES (?, 1 + ?)
         ON CONFLICT(company_id) DO UPDATE SET next_number = next_number + ?
         RETURNING next_number`,
		companyID,
		count,
		count,
	)
	if err := row.Scan(&next); err != nil {
		return 0, fmt.Errorf("reserve bus numbers: %w", err)
	}
	return next - int64(count), nil
}

// Insert persists a QR code record. A duplicate bus number for the company is
// reported as a ConcurrencyError: it means an allocation race slipped past
// the counter.
func (s *Store) Insert(ctx context.Context, code *QRCode) error {
	if code == nil {
		return errors.New("qr code is nil")
	}
	now := time.Now().UTC()
	code.CreatedAt = now
	if code.Status == "" {
		code.Status = StatusActivo
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO qr_codes (
            id, company_id, bus_number, wifi_ssid, wifi_password, portal_url,
            image_path, qr_size, error_correction, status,
            download_count, scan_count, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		code.ID,
		code.CompanyID,
		nullableString(code.BusNumber),
		code.SSID,
		code.Password,
		code.PortalURL,
		code.ImagePath,
		code.Size,
		string(code.Level),
		string(code.Status),
		code.DownloadCount,
		code.ScanCount,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fault.NewConcurrency("bus number %s already issued for company %d", code.BusNumber, code.CompanyID)
		}
		return fmt.Errorf("insert qr code: %w", err)
	}
	return nil
}

// GetByID fetches a QR code by identifier, or nil when unknown.
func (s *Store) GetByID(ctx context.Context, id string) (*QRCode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+qrColumns+` FROM qr_codes WHERE id = ?`, id)
	code, err := scanQRCode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get qr code: %w", err)
	}
	return code, nil
}

// ListByCompany returns a company's QR codes ordered by creation time.
func (s *Store) ListByCompany(ctx context.Context, companyID int64) ([]*QRCode, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+qrColumns+` FROM qr_codes WHERE company_id = ? ORDER BY created_at`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	defer rows.Close()

	var codes []*QRCode
	for rows.Next() {
		code, err := scanQRCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// SetStatus soft-activates or deactivates a code. Codes are never deleted.
func (s *Store) SetStatus(ctx context.Context, id string, status CodeStatus) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE qr_codes SET status = ? WHERE id = ?`,
		string(status),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("set qr status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// IncrementDownloads atomically bumps the download counter.
func (s *Store) IncrementDownloads(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE qr_codes SET download_count = download_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	return nil
}

// IncrementScans atomically bumps the scan counter.
func (s *Store) IncrementScans(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE qr_codes SET scan_count = scan_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment scans: %w", err)
	}
	return nil
}

const qrColumns = `id, company_id, bus_number, wifi_ssid, wifi_password, portal_url,
    image_path, qr_size, error_correction, status, download_count, scan_count, created_at`

func scanQRCode(scanner interface{ Scan(dest ...any) error }) (*QRCode, error) {
	var (
		id            string
		companyID     int64
		busNumber     sql.NullString
		ssid          string
		password      string
		portalURL     string
		imagePath     string
		size          int
		level         string
		status        string
		downloadCount sql.NullInt64
		scanCount     sql.NullInt64
		createdRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&companyID,
		&busNumber,
		&ssid,
		&password,
		&portalURL,
		&imagePath,
		&size,
		&level,
		&status,
		&downloadCount,
		&scanCount,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	code := &QRCode{
		ID:            id,
		CompanyID:     companyID,
		BusNumber:     busNumber.String,
		SSID:          ssid,
		Password:      password,
		PortalURL:     portalURL,
		ImagePath:     imagePath,
		Size:          size,
		Level:         Level(level),
		Status:        CodeStatus(status),
		DownloadCount: int(downloadCount.Int64),
		ScanCount:     int(scanCount.Int64),
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw.String); err == nil {
		code.CreatedAt = created
	}
	return code, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
