package packaging

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"playmi/internal/config"
	"playmi/internal/storage"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store manages package persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the package database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "packages.db")
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

// DBPath returns the database file location.
func (s *Store) DBPath() string { return s.path }

// Create inserts a new package row in status generando.
func (s *Store) Create(ctx context.Context, pkg *Package) error {
	if pkg == nil {
		return errors.New("package is nil")
	}
	now := time.Now().UTC()
	pkg.CreatedAt = now
	pkg.UpdatedAt = now
	if pkg.Status == "" {
		pkg.Status = StatusGenerando
	}

	manifestJSON, err := marshalJSON(pkg.Manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	adsJSON, err := marshalJSON(pkg.Advertising)
	if err != nil {
		return fmt.Errorf("marshal advertising refs: %w", err)
	}
	brandingJSON, err := marshalJSON(pkg.Branding)
	if err != nil {
		return fmt.Errorf("marshal branding: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO packages (
            id, company_id, name, version, status, manifest_json,
            wifi_ssid, wifi_password, wifi_hidden, advertising_json, branding_json,
            archive_path, archive_size_bytes, archive_checksum_sha256,
            installation_key, created_at, updated_at, license_expires_at,
            download_count, notes,
            progress_percent, files_processed, total_files, progress_message,
            last_heartbeat, cancel_requested
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pkg.ID,
		pkg.CompanyID,
		pkg.Name,
		nullableString(pkg.Version),
		string(pkg.Status),
		manifestJSON,
		pkg.Wifi.SSID,
		pkg.Wifi.Password,
		boolToInt(pkg.Wifi.Hidden),
		adsJSON,
		brandingJSON,
		nullableString(pkg.ArchivePath),
		pkg.ArchiveSizeBytes,
		nullableString(pkg.ArchiveChecksumSHA256),
		pkg.InstallationKey,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		nullableTime(pkg.LicenseExpiresAt),
		pkg.DownloadCount,
		nullableString(pkg.Notes),
		pkg.ProgressPercent,
		pkg.FilesProcessed,
		pkg.TotalFiles,
		nullableString(pkg.ProgressMessage),
		nullableTime(pkg.LastHeartbeat),
		boolToInt(pkg.CancelRequested),
	)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

// GetByID fetches a package by identifier, or nil when unknown.
func (s *Store) GetByID(ctx context.Context, id string) (*Package, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = ?`, id)
	pkg, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	return pkg, nil
}

// Update persists changes to an existing package. The archive-checksum
// invariant is enforced here: statuses without a verified archive never carry
// checksum metadata.
func (s *Store) Update(ctx context.Context, pkg *Package) error {
	if pkg == nil {
		return errors.New("package is nil")
	}
	if !pkg.Status.HasArchive() {
		pkg.ArchiveChecksumSHA256 = ""
	}
	pkg.UpdatedAt = time.Now().UTC()

	manifestJSON, err := marshalJSON(pkg.Manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	adsJSON, err := marshalJSON(pkg.Advertising)
	if err != nil {
		return fmt.Errorf("marshal advertising refs: %w", err)
	}
	brandingJSON, err := marshalJSON(pkg.Branding)
	if err != nil {
		return fmt.Errorf("marshal branding: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE packages
         SET company_id = ?, name = ?, version = ?, status = ?, manifest_json = ?,
             wifi_ssid = ?, wifi_password = ?, wifi_hidden = ?, advertising_json = ?,
             branding_json = ?, archive_path = ?, archive_size_bytes = ?,
             archive_checksum_sha256 = ?, license_expires_at = ?, download_count = ?,
             notes = ?, updated_at = ?, progress_percent = ?, files_processed = ?,
             total_files = ?, progress_message = ?, last_heartbeat = ?, cancel_requested = ?
         WHERE id = ?`,
		pkg.CompanyID,
		pkg.Name,
		nullableString(pkg.Version),
		string(pkg.Status),
		manifestJSON,
		pkg.Wifi.SSID,
		pkg.Wifi.Password,
		boolToInt(pkg.Wifi.Hidden),
		adsJSON,
		brandingJSON,
		nullableString(pkg.ArchivePath),
		pkg.ArchiveSizeBytes,
		nullableString(pkg.ArchiveChecksumSHA256),
		nullableTime(pkg.LicenseExpiresAt),
		pkg.DownloadCount,
		nullableString(pkg.Notes),
		pkg.UpdatedAt.Format(time.RFC3339Nano),
		pkg.ProgressPercent,
		pkg.FilesProcessed,
		pkg.TotalFiles,
		nullableString(pkg.ProgressMessage),
		nullableTime(pkg.LastHeartbeat),
		boolToInt(pkg.CancelRequested),
		pkg.ID,
	)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	return nil
}

// List returns packages filtered by status set (or all when none given),
// ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Package, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + packageColumns + ` FROM packages`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = string(status)
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var packages []*Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, rows.Err()
}

// Remove deletes a package by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete package: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of packages grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM packages GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("package stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// SetProgress updates the progress columns of an in-flight package.
func (s *Store) SetProgress(ctx context.Context, id string, processed, total, percent int, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE packages
         SET files_processed = ?, total_files = ?, progress_percent = ?,
             progress_message = ?, updated_at = ?
         WHERE id = ?`,
		processed,
		total,
		percent,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

// UpdateHeartbeat refreshes the liveness timestamp of an in-flight package.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE packages SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// RequestCancel flags an in-flight package for cancellation. Returns false
// when the package is not currently generating.
func (s *Store) RequestCancel(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE packages SET cancel_requested = 1, updated_at = ? WHERE id = ? AND status = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		string(StatusGenerando),
	)
	if err != nil {
		return false, fmt.Errorf("request cancel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkDownloaded transitions listo -> descargado (idempotent for repeated
// downloads) and increments the download counter atomically. Returns false
// when the package is not in a downloadable state.
func (s *Store) MarkDownloaded(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE packages
         SET status = ?, download_count = download_count + 1, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		string(StatusDescargado),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		string(StatusListo),
		string(StatusDescargado),
	)
	if err != nil {
		return false, fmt.Errorf("mark downloaded: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const packageColumns = `id, company_id, name, version, status, manifest_json,
    wifi_ssid, wifi_password, wifi_hidden, advertising_json, branding_json,
    archive_path, archive_size_bytes, archive_checksum_sha256,
    installation_key, created_at, updated_at, license_expires_at,
    download_count, notes, progress_percent, files_processed, total_files,
    progress_message, last_heartbeat, cancel_requested`

func scanPackage(scanner interface{ Scan(dest ...any) error }) (*Package, error) {
	var (
		id               string
		companyID        int64
		name             string
		version          sql.NullString
		statusStr        string
		manifestJSON     sql.NullString
		wifiSSID         string
		wifiPassword     string
		wifiHidden       sql.NullInt64
		adsJSON          sql.NullString
		brandingJSON     sql.NullString
		archivePath      sql.NullString
		archiveSize      sql.NullInt64
		archiveChecksum  sql.NullString
		installationKey  string
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		licenseRaw       sql.NullString
		downloadCount    sql.NullInt64
		notes            sql.NullString
		progressPercent  sql.NullInt64
		filesProcessed   sql.NullInt64
		totalFiles       sql.NullInt64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
		cancelRequested  sql.NullInt64
	)

	if err := scanner.Scan(
		&id,
		&companyID,
		&name,
		&version,
		&statusStr,
		&manifestJSON,
		&wifiSSID,
		&wifiPassword,
		&wifiHidden,
		&adsJSON,
		&brandingJSON,
		&archivePath,
		&archiveSize,
		&archiveChecksum,
		&installationKey,
		&createdRaw,
		&updatedRaw,
		&licenseRaw,
		&downloadCount,
		&notes,
		&progressPercent,
		&filesProcessed,
		&totalFiles,
		&progressMessage,
		&lastHeartbeatRaw,
		&cancelRequested,
	); err != nil {
		return nil, err
	}

	pkg := &Package{
		ID:                    id,
		CompanyID:             companyID,
		Name:                  name,
		Version:               version.String,
		Status:                Status(statusStr),
		Wifi:                  WifiConfig{SSID: wifiSSID, Password: wifiPassword, Hidden: wifiHidden.Int64 != 0},
		ArchivePath:           archivePath.String,
		ArchiveSizeBytes:      archiveSize.Int64,
		ArchiveChecksumSHA256: archiveChecksum.String,
		InstallationKey:       installationKey,
		DownloadCount:         int(downloadCount.Int64),
		Notes:                 notes.String,
		ProgressPercent:       int(progressPercent.Int64),
		FilesProcessed:        int(filesProcessed.Int64),
		TotalFiles:            int(totalFiles.Int64),
		ProgressMessage:       progressMessage.String,
		CancelRequested:       cancelRequested.Int64 != 0,
	}

	if err := unmarshalJSON(manifestJSON.String, &pkg.Manifest); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if err := unmarshalJSON(adsJSON.String, &pkg.Advertising); err != nil {
		return nil, fmt.Errorf("unmarshal advertising refs: %w", err)
	}
	if err := unmarshalJSON(brandingJSON.String, &pkg.Branding); err != nil {
		return nil, fmt.Errorf("unmarshal branding: %w", err)
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		pkg.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		pkg.UpdatedAt = updated
	}
	if licenseRaw.Valid {
		if expires, err := parseTimeString(licenseRaw.String); err == nil {
			pkg.LicenseExpiresAt = &expires
		}
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			pkg.LastHeartbeat = &heartbeat
		}
	}
	return pkg, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
