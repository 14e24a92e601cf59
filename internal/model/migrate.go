package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates the
// indexes that enforce the registration invariants at the database level.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Profile{},
		&Event{},
		&Registration{},
		&TeamMember{},
	); err != nil {
		return err
	}

	// One non-cancelled registration per (event, caller). Cancelled rows are
	// excluded so a caller whose registration was cancelled can register
	// again; this index is the backstop for the duplicate check racing with
	// itself across concurrent attempts.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_registrations_active_event_user " +
			"ON registrations (event_id, user_id) " +
			"WHERE status <> 'cancelled' AND deleted_at IS NULL",
	).Error; err != nil {
		return err
	}

	// Case-insensitive unique email for non-soft-deleted profiles.
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email_lower " +
			"ON profiles ((lower(email))) WHERE deleted_at IS NULL",
	).Error
}
