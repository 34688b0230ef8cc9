package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jask/flowforms/internal/database"
)

// MaintenanceService houses housekeeping for the submission journal.
type MaintenanceService struct {
	DB *sql.DB
}

// Prune deletes journal entries created more than age ago and reports how
// many were removed. A non-positive age keeps everything.
func (s *MaintenanceService) Prune(ctx context.Context, age time.Duration) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	if age <= 0 {
		return 0, nil
	}
	cutoff := database.Now().Add(-age).Format("2006-01-02 15:04:05")
	res, err := s.DB.ExecContext(ctx, `DELETE FROM submissions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune submissions: %w", err)
	}
	return res.RowsAffected()
}

// Reset wipes the journal. It keeps the schema intact so the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM submissions"); err != nil {
			return fmt.Errorf("reset submissions: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
