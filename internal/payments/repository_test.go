package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/farellandr/castingcall/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var orderColumns = []string{
	"id", "user_id", "event_id", "audition_id", "amount", "currency", "status",
	"gateway_order_id", "transaction_id", "payment_method", "payment_url", "created_at", "updated_at",
}

func newMockRepository(t *testing.T) (*GormRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return NewGormRepository(db), mock
}

func orderRow(status models.PaymentStatus, txn any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orderColumns).AddRow(
		uuid.NewString(), userA, uuid.NewString(), nil, "500.00", "INR", string(status),
		"ORDER_1700000000000_a1b2c3d4", txn, "phonepe", "https://mercury.phonepe.com/pay/x", now, now,
	)
}

func TestTransitionAppliesAndWritesOutbox(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_orders" SET .* WHERE gateway_order_id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "payment_orders" WHERE gateway_order_id = \$1`).
		WillReturnRows(orderRow(models.PaymentSuccess, "T2311"))
	mock.ExpectQuery(`INSERT INTO "payment_outbox"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	order, applied, err := repo.Transition(context.Background(), Transition{
		GatewayOrderID: "ORDER_1700000000000_a1b2c3d4",
		Status:         models.PaymentSuccess,
		TransactionID:  "T2311",
		Source:         SourceWebhook,
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.PaymentSuccess, order.Status)
	assert.Equal(t, "T2311", *order.TransactionID)
	assert.Equal(t, "500", order.Amount.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionOnTerminalOrderIsNoop(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_orders" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "payment_orders"`).WillReturnRows(orderRow(models.PaymentSuccess, "T1"))
	mock.ExpectCommit()

	order, applied, err := repo.Transition(context.Background(), Transition{
		GatewayOrderID: "ORDER_1700000000000_a1b2c3d4",
		Status:         models.PaymentPending,
		Source:         SourceWebhook,
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.PaymentSuccess, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionPendingWritesNoOutbox(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_orders" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "payment_orders"`).WillReturnRows(orderRow(models.PaymentPending, nil))
	mock.ExpectCommit()

	order, applied, err := repo.Transition(context.Background(), Transition{
		GatewayOrderID: "ORDER_1700000000000_a1b2c3d4",
		Status:         models.PaymentPending,
		Source:         SourceVerify,
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Nil(t, order.TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionScopedToOwner(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_orders" SET .* WHERE gateway_order_id = \$\d+ AND user_id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "payment_orders" WHERE gateway_order_id = \$1 AND user_id = \$2`).
		WillReturnRows(sqlmock.NewRows(orderColumns))
	mock.ExpectRollback()

	_, _, err := repo.Transition(context.Background(), Transition{
		GatewayOrderID: "ORDER_1700000000000_a1b2c3d4",
		UserID:         userB,
		Status:         models.PaymentSuccess,
		Source:         SourceVerify,
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionUpdateFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_orders" SET`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, _, err := repo.Transition(context.Background(), Transition{
		GatewayOrderID: "ORDER_1700000000000_a1b2c3d4",
		Status:         models.PaymentFailed,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateOrderID(t *testing.T) {
	repo, mock := newMockRepository(t)
	eventID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "payment_orders"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.PaymentOrder{
		UserID:         userA,
		EventID:        &eventID,
		Currency:       "INR",
		Status:         models.PaymentPending,
		GatewayOrderID: "ORDER_1700000000000_a1b2c3d4",
		PaymentMethod:  models.PaymentMethodPhonePe,
	})
	assert.ErrorIs(t, err, ErrDuplicateOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOwned(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "payment_orders" WHERE gateway_order_id = \$1 AND user_id = \$2`).
		WillReturnRows(orderRow(models.PaymentPending, nil))

	order, err := repo.FindOwned(context.Background(), "ORDER_1700000000000_a1b2c3d4", userA)
	require.NoError(t, err)
	assert.Equal(t, userA, order.UserID)
	assert.NotNil(t, order.EventID)
	assert.Nil(t, order.AuditionID)

	mock.ExpectQuery(`SELECT \* FROM "payment_orders"`).WillReturnRows(sqlmock.NewRows(orderColumns))
	_, err = repo.FindOwned(context.Background(), "ORDER_1700000000000_a1b2c3d4", userB)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStalePending(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "payment_orders" WHERE status = \$1 AND created_at < \$2 ORDER BY created_at LIMIT \$3`).
		WillReturnRows(orderRow(models.PaymentPending, nil))

	orders, err := repo.ListStalePending(context.Background(), time.Now().Add(-15*time.Minute), 50)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTarget(t *testing.T) {
	repo, mock := newMockRepository(t)
	eventID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "organizer_id", "start_time", "location", "created_at", "updated_at", "deleted_at"}).
			AddRow(eventID.String(), "Open call", "organizer-1", now, "Mumbai", now, now, nil))

	target, err := repo.FindTarget(context.Background(), TargetEvent, eventID)
	require.NoError(t, err)
	assert.Equal(t, &Target{Kind: TargetEvent, ID: eventID, Title: "Open call", OwnerID: "organizer-1"}, target)

	mock.ExpectQuery(`SELECT \* FROM "auditions" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = repo.FindTarget(context.Background(), TargetAudition, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindTarget(context.Background(), "workshop", uuid.New())
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.NoError(t, mock.ExpectationsWereMet())
}
