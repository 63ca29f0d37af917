package repository

import (
	"context"
	"regexp"
	"testing"

	"wayfare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFeeConfigRepository_GetActive(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFeeConfigRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "service_fee_percent", "cleaning_fee_percent", "tax_rate", "active"}).
			AddRow(3, 10.0, 5.0, 7.5, true)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "booking_fee_configs" WHERE active = $1 ORDER BY created_at DESC,"booking_fee_configs"."id" LIMIT $2`)).
			WithArgs(true, 1).
			WillReturnRows(rows)

		cfg, err := repo.GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10.0, cfg.ServiceFeePercent)
		assert.True(t, cfg.Active)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("None Active", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "booking_fee_configs" WHERE active = $1`)).
			WithArgs(true, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		cfg, err := repo.GetActive(ctx)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFeeConfigRepository_Activate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFeeConfigRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "booking_fee_configs" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "booking_fee_configs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectCommit()

	cfg := &models.BookingFeeConfig{
		ServiceFeePercent:  12.0,
		CleaningFeePercent: 4.0,
		TaxRate:            7.5,
	}
	err := repo.Activate(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, cfg.Active, "newly activated config must be flagged active")
	assert.NoError(t, mock.ExpectationsWereMet())
}
