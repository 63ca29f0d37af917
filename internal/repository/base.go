package repository

import (
	"strings"

	"wayfare/internal/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockingClause returns a SELECT ... FOR UPDATE row lock for transactional
// capacity and availability checks.
func lockingClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
