package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"wayfare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingRepository_HasOverlap(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	checkIn := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)

	query := regexp.QuoteMeta(`SELECT count(*) FROM "bookings" WHERE accommodation_id = $1 AND status NOT IN ($2,$3) AND (check_in < $4 AND $5 < check_out) AND "bookings"."deleted_at" IS NULL`)

	t.Run("Overlap Found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(5, "CANCELLED", "NO_SHOW", checkOut, checkIn).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		overlap, err := repo.HasOverlap(ctx, 5, checkIn, checkOut, 0)
		require.NoError(t, err)
		assert.True(t, overlap)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Overlap", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(5, "CANCELLED", "NO_SHOW", checkOut, checkIn).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		overlap, err := repo.HasOverlap(ctx, 5, checkIn, checkOut, 0)
		require.NoError(t, err)
		assert.False(t, overlap)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Excludes Own Booking", func(t *testing.T) {
		queryWithExclude := regexp.QuoteMeta(`SELECT count(*) FROM "bookings" WHERE accommodation_id = $1 AND status NOT IN ($2,$3) AND (check_in < $4 AND $5 < check_out) AND id <> $6 AND "bookings"."deleted_at" IS NULL`)
		mock.ExpectQuery(queryWithExclude).
			WithArgs(5, "CANCELLED", "NO_SHOW", checkOut, checkIn, 42).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		overlap, err := repo.HasOverlap(ctx, 5, checkIn, checkOut, 42)
		require.NoError(t, err)
		assert.False(t, overlap)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateStatus(ctx, 1, models.BookingConfirmed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.UpdateStatus(ctx, 99, models.BookingConfirmed)
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_CompleteElapsed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.CompleteElapsed(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingOverlapSemantics(t *testing.T) {
	t.Parallel()
	base := models.Booking{
		CheckIn:  time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
	}

	// Back-to-back stays share a boundary date but do not overlap.
	assert.False(t, base.Overlaps(
		time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 16, 0, 0, 0, 0, time.UTC),
	))
	assert.False(t, base.Overlaps(
		time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	))

	// Any shared night overlaps.
	assert.True(t, base.Overlaps(
		time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
	))
	assert.True(t, base.Overlaps(
		time.Date(2026, 7, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC),
	))
	assert.True(t, base.Overlaps(
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	))
}
