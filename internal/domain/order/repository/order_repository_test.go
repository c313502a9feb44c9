package repository

import (
	"context"
	"storefront/internal/domain/order/model"
	"storefront/pkg/errs"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var orderColumns = []string{
	"id", "created_at", "updated_at", "deleted_at", "user_id", "items",
	"shipping_details", "total_amount", "status", "promo_code", "channel",
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func sampleOrder() *model.Order {
	return &model.Order{
		UserID: "user-1",
		Items: datatypes.NewJSONSlice([]model.LineItem{
			{ProductID: "robe-1", Name: "Robe wax", Quantity: 1, UnitPrice: decimal.NewFromInt(10000)},
		}),
		ShippingDetails: datatypes.NewJSONType(model.ShippingDetails{FullName: "Awa K.", Address: "Rue 12", City: "Abidjan", Phone: "+2250700000000"}),
		TotalAmount:     decimal.NewFromInt(12000),
		PromoCode:       datatypes.NewJSONType[*model.PromoSnapshot](nil),
		Channel:         "cinetpay",
	}
}

func TestOrderRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec(`INSERT INTO "orders"`).WillReturnResult(sqlmock.NewResult(0, 1))

	order := sampleOrder()
	order.Status = model.StatusPaid // 调用方传入的状态被忽略

	id, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, order.ID)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.False(t, order.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_MissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	order := sampleOrder()
	order.UserID = ""

	_, err := repo.Create(context.Background(), order)
	assert.ErrorIs(t, err, model.ErrMissingUserID)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_StorageError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec(`INSERT INTO "orders"`).WillReturnError(assert.AnError)

	_, err := repo.Create(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindStorage))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestOrderRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(orderColumns).AddRow(
		"order-1", now, now, nil, "user-1",
		[]byte(`[{"productId":"robe-1","name":"Robe wax","quantity":1,"unitPrice":"10000"}]`),
		[]byte(`{"fullName":"Awa K.","address":"Rue 12","city":"Abidjan","country":"CI","phone":"+2250700000000"}`),
		"12000.00", "pending", []byte(`null`), "cinetpay",
	)
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1`).WillReturnRows(rows)

	order, err := repo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(12000)))
	assert.Equal(t, "Abidjan", order.Shipping().City)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "robe-1", order.Items[0].ProductID)
	assert.Nil(t, order.Promo())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnRows(sqlmock.NewRows(orderColumns))

	order, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, order)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	t.Run("unconditional write", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewOrderRepository(db)

		mock.ExpectExec(`UPDATE "orders" SET "status"=\$1`).WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(context.Background(), "order-1", model.StatusShipped)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown order", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewOrderRepository(db)

		mock.ExpectExec(`UPDATE "orders"`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(context.Background(), "missing", model.StatusShipped)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestOrderRepository_TransitionIfPending(t *testing.T) {
	t.Run("pending order is transitioned", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewOrderRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "id","status" FROM "orders" WHERE id = \$1 .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("order-1", "pending"))
		mock.ExpectExec(`UPDATE "orders" SET "status"=\$1,"updated_at"=\$2 WHERE .*id = \$3 AND status = \$4`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := repo.TransitionIfPending(context.Background(), "order-1", model.StatusPaid)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, model.StatusPaid, res.FinalStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal order is left untouched", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewOrderRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("order-1", "paid"))
		mock.ExpectCommit()

		res, err := repo.TransitionIfPending(context.Background(), "order-1", model.StatusCancelled)
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, model.StatusPaid, res.FinalStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown order", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewOrderRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
		mock.ExpectRollback()

		_, err := repo.TransitionIfPending(context.Background(), "missing", model.StatusPaid)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewOrderRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("order-1", "pending"))
		mock.ExpectExec(`UPDATE "orders"`).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		_, err := repo.TransitionIfPending(context.Background(), "order-1", model.StatusPaid)
		assert.True(t, errs.IsKind(err, errs.KindStorage))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE status = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE status = \$1 .* ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(
			"order-1", now, now, nil, "user-1", []byte(`[]`), []byte(`{}`),
			"5000", "paid", []byte(`null`), "cinetpay",
		))

	orders, total, err := repo.List(context.Background(), model.Filter{Status: model.StatusPaid}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, model.StatusPaid, orders[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderStatsRepository_StatusBreakdown(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := NewOrderStatsRepository(sqlx.NewDb(sqlDB, "postgres"))

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS order_count`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "order_count", "revenue"}).
			AddRow("cancelled", 1, "0").
			AddRow("paid", 3, "36000.00"))

	stats, err := repo.StatusBreakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, model.StatusPaid, stats[1].Status)
	assert.Equal(t, int64(3), stats[1].Count)
	assert.True(t, stats[1].Revenue.Equal(decimal.NewFromInt(36000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
