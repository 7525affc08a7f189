package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-payment/internal/logger"
	"ms-payment/internal/models"
)

type BunStore struct {
	db  *bun.DB
	log *logger.Logger
}

func NewBunStore(db *bun.DB, log *logger.Logger) *BunStore {
	return &BunStore{db: db, log: log}
}

// CreatePayment inserts a new payment at version 0.
func (s *BunStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.log.LogDatabase("INSERT", "payments", fmt.Sprintf("Saving payment %s", payment.ReferenceID))

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	payment.Version = 0

	if _, err := s.db.NewInsert().Model(payment).Exec(ctx); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment %s: %v", payment.ReferenceID, err))
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// FindPaymentsByReference returns up to limit payments with the reference,
// payment method loaded.
func (s *BunStore) FindPaymentsByReference(ctx context.Context, reference string, limit int) ([]*models.Payment, error) {
	s.log.LogDatabase("SELECT", "payments", fmt.Sprintf("Fetching payments by reference %s", reference))

	var payments []*models.Payment
	err := s.db.NewSelect().
		Model(&payments).
		Relation("PaymentMethod").
		Where("payment.reference_id = ?", reference).
		OrderExpr("payment.created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	return payments, nil
}

func (s *BunStore) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.NewSelect().
		Model(&payment).
		Relation("PaymentMethod").
		Where("payment.reference_id = ?", reference).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// UpdatePayment writes status and transaction id when the stored version still
// matches payment.Version, then bumps the version.
func (s *BunStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	s.log.LogDatabase("UPDATE", "payments", fmt.Sprintf("Updating payment %s to %s (version %d)",
		payment.ReferenceID, payment.Status, payment.Version))

	expected := payment.Version
	payment.Version = expected + 1
	payment.UpdatedAt = time.Now().UTC()

	res, err := s.db.NewUpdate().
		Model(payment).
		Column("transaction_id", "status", "version", "updated_at").
		Where("payment_id = ?", payment.PaymentID).
		Where("version = ?", expected).
		Exec(ctx)
	if err != nil {
		payment.Version = expected
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update payment %s: %v", payment.ReferenceID, err))
		return fmt.Errorf("failed to update payment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		payment.Version = expected
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if rows == 0 {
		payment.Version = expected
		return fmt.Errorf("payment %s at version %d: %w", payment.ReferenceID, expected, ErrConcurrentUpdate)
	}
	return nil
}

func (s *BunStore) ListPaymentsByOrder(ctx context.Context, orderID string) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := s.db.NewSelect().
		Model(&payments).
		Where("order_id = ?", orderID).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// SavePaymentMethod validates and upserts method settings.
func (s *BunStore) SavePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}
	s.log.LogDatabase("UPSERT", "payment_methods", fmt.Sprintf("Saving payment method %s", method.ID))

	_, err := s.db.NewInsert().
		Model(method).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("merchant_account = EXCLUDED.merchant_account").
		Set("hmac_key = EXCLUDED.hmac_key").
		Set("api_key = EXCLUDED.api_key").
		Set("environment = EXCLUDED.environment").
		Set("live_url_prefix = EXCLUDED.live_url_prefix").
		Set("return_url = EXCLUDED.return_url").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save payment method: %w", err)
	}
	return nil
}

func (s *BunStore) GetPaymentMethod(ctx context.Context, id string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := s.db.NewSelect().Model(&method).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	return &method, nil
}

func (s *BunStore) FindPaymentMethodByMerchantAccount(ctx context.Context, merchantAccount string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := s.db.NewSelect().
		Model(&method).
		Where("merchant_account = ?", merchantAccount).
		OrderExpr("id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment method: %w", err)
	}
	return &method, nil
}

func (s *BunStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *BunStore) Close() error {
	s.log.LogDatabase("CLOSE", "postgresql", "Closing database connection")
	return s.db.Close()
}

var _ Store = (*BunStore)(nil)
