package packaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"playmi/internal/fault"
)

// ClaimCompany atomically claims a company for a new bundling job. At most one
// non-terminal job may hold a company at a time. A claim whose heartbeat is
// older than staleCutoff is treated as abandoned (crashed job) and reclaimed.
func (s *Store) ClaimCompany(ctx context.Context, companyID int64, packageID string, staleCutoff time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var (
		heldBy       string
		heartbeatRaw string
	)
	row := tx.QueryRowContext(ctx, `SELECT package_id, heartbeat FROM company_claims WHERE company_id = ?`, companyID)
	err = row.Scan(&heldBy, &heartbeatRaw)
	now := time.Now().UTC()

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO company_claims (company_id, package_id, heartbeat) VALUES (?, ?, ?)`,
			companyID,
			packageID,
			now.Format(time.RFC3339Nano),
		); err != nil {
			if isUniqueViolation(err) {
				return fault.NewConcurrency("company %d already has a package in flight", companyID)
			}
			return fmt.Errorf("insert claim: %w", err)
		}
	case err != nil:
		return fmt.Errorf("scan claim: %w", err)
	default:
		heartbeat, parseErr := parseTimeString(heartbeatRaw)
		if parseErr == nil && heartbeat.After(staleCutoff) {
			return fault.NewConcurrency("company %d already has package %s in flight", companyID, heldBy)
		}
		// Stale claim: the owning job stopped heartbeating. Reclaim it.
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE company_claims SET package_id = ?, heartbeat = ? WHERE company_id = ?`,
			packageID,
			now.Format(time.RFC3339Nano),
			companyID,
		); err != nil {
			return fmt.Errorf("reclaim stale claim: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit claim: %w", err)
	}
	return nil
}

// RefreshClaim updates the claim heartbeat for the company while its job runs.
func (s *Store) RefreshClaim(ctx context.Context, companyID int64, packageID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE company_claims SET heartbeat = ? WHERE company_id = ? AND package_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		companyID,
		packageID,
	)
	if err != nil {
		return fmt.Errorf("refresh claim: %w", err)
	}
	return nil
}

// ReleaseClaim frees the company once its job reaches a terminal state.
func (s *Store) ReleaseClaim(ctx context.Context, companyID int64, packageID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`DELETE FROM company_claims WHERE company_id = ? AND package_id = ?`,
		companyID,
		packageID,
	)
	if err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

// isUniqueViolation detects a SQLite unique-constraint failure, which on the
// claim insert means another job already holds the company.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
