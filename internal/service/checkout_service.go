package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-backend/internal/codegen"
	"go-pos-backend/internal/model"
	"go-pos-backend/internal/repository"
	"go-pos-backend/internal/ws"
	"go-pos-backend/pkg/metrics"
	"go-pos-backend/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthUser is the caller identity resolved by the access-control gate.
type AuthUser struct {
	ID   uuid.UUID
	Name string
	Role model.Role
}

// CartItem is one requested line. UnitPrice is the client echo and is never
// trusted; the authoritative price is re-fetched at commit time.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64   `json:"unit_price"`
}

type CheckoutRequest struct {
	Items         []CartItem          `json:"items" validate:"required,min=1,dive"`
	PaymentMethod model.PaymentMethod `json:"payment_method" validate:"required,oneof=cash qris transfer"`
	AmountPaid    float64             `json:"amount_paid" validate:"gte=0"`
}

type CheckoutResult struct {
	TransactionID   uuid.UUID `json:"transaction_id"`
	TransactionCode string    `json:"transaction_code"`
	Total           float64   `json:"total"`
	Change          float64   `json:"change"`
}

type CheckoutService interface {
	Checkout(ctx context.Context, user AuthUser, req *CheckoutRequest) (*CheckoutResult, error)
	ListTransactions(user AuthUser, filter repository.TransactionFilter) ([]model.TransactionSummary, error)
	GetTransaction(user AuthUser, id uuid.UUID) (*model.Transaction, error)
	VoidTransaction(ctx context.Context, user AuthUser, id uuid.UUID) (*model.Transaction, error)
	RefundTransaction(ctx context.Context, user AuthUser, id uuid.UUID) (*model.Transaction, error)
}

type checkoutService struct {
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	db              *gorm.DB
	codegen         *codegen.Generator
	wsHub           *ws.Hub
	logger          *zap.Logger
	metrics         *metrics.Metrics
	taxRate         float64
	dbTimeout       time.Duration
}

func NewCheckoutService(
	pRepo repository.ProductRepository,
	tRepo repository.TransactionRepository,
	db *gorm.DB,
	gen *codegen.Generator,
	hub *ws.Hub,
	logger *zap.Logger,
	m *metrics.Metrics,
	taxRate float64,
	dbTimeout time.Duration,
) CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &checkoutService{
		productRepo:     pRepo,
		transactionRepo: tRepo,
		db:              db,
		codegen:         gen,
		wsHub:           hub,
		logger:          logger,
		metrics:         m,
		taxRate:         taxRate,
		dbTimeout:       dbTimeout,
	}
}

// Checkout turns a cart into a committed transaction. The header insert, all
// line-item inserts and every stock decrement run inside one database
// transaction; any failure rolls the whole unit back and surfaces as a
// CheckoutError wrapping the cause.
func (s *checkoutService) Checkout(ctx context.Context, user AuthUser, req *CheckoutRequest) (*CheckoutResult, error) {
	if !model.Can(user.Role, model.ActionCheckoutCreate) {
		return nil, ErrForbidden
	}

	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return nil, validationError("field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, validationError("quantity must be greater than zero")
		}
	}

	code, err := s.codegen.TransactionCode()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	started := time.Now()
	var (
		transaction model.Transaction
		change      float64
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subtotal float64
		items := make([]model.TransactionItem, 0, len(req.Items))

		for _, line := range req.Items {
			// Authoritative price and stock, read at commit time. The
			// client-echoed unit price is deliberately ignored.
			product, err := s.productRepo.FindByIDTx(tx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %s", ErrNotFound, line.ProductID)
				}
				return err
			}
			if !product.IsActive {
				return validationError("product '%s' is inactive", product.Name)
			}

			lineTotal := model.Round2(float64(line.Quantity) * product.Price)
			subtotal += lineTotal

			productID := product.ID
			items = append(items, model.TransactionItem{
				ProductID:   &productID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   product.Price,
				LineTotal:   lineTotal,
			})
		}

		subtotal = model.Round2(subtotal)
		tax := model.Round2(subtotal * s.taxRate)
		total := model.Round2(subtotal + tax)

		if req.PaymentMethod == model.PaymentCash && req.AmountPaid < total {
			return ErrInsufficientPayment
		}
		change = 0
		if req.AmountPaid > total {
			change = model.Round2(req.AmountPaid - total)
		}

		transaction = model.Transaction{
			Code:          code,
			UserID:        user.ID,
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         total,
			PaymentMethod: req.PaymentMethod,
			AmountPaid:    req.AmountPaid,
			ChangeAmount:  change,
			Status:        model.StatusCompleted,
			Items:         items,
		}
		transaction.CreatedBy = user.ID.String()
		transaction.UpdatedBy = user.ID.String()

		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}

		for _, line := range req.Items {
			if err := s.productRepo.DecrementStock(tx, line.ProductID, line.Quantity, user.ID.String()); err != nil {
				return err
			}
		}

		return nil
	})

	elapsed := time.Since(started)
	if err != nil {
		s.observeCheckout("failed", elapsed, err)
		s.logger.Warn("checkout rolled back",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return nil, &CheckoutError{Cause: err}
	}

	s.observeCheckout("committed", elapsed, nil)
	s.logger.Info("checkout committed",
		zap.String("transaction_code", transaction.Code),
		zap.String("user_id", user.ID.String()),
		zap.Float64("total", transaction.Total),
		zap.Int("items", len(transaction.Items)))

	s.broadcastSale("sale_committed", &transaction, user)

	return &CheckoutResult{
		TransactionID:   transaction.ID,
		TransactionCode: transaction.Code,
		Total:           transaction.Total,
		Change:          change,
	}, nil
}

// ListTransactions returns ledger summaries. Admins see the whole store;
// kasir callers are always scoped to their own transactions.
func (s *checkoutService) ListTransactions(user AuthUser, filter repository.TransactionFilter) ([]model.TransactionSummary, error) {
	if !model.Can(user.Role, model.ActionTransactionViewAll) {
		if !model.Can(user.Role, model.ActionTransactionViewOwn) {
			return nil, ErrForbidden
		}
		own := user.ID
		filter.CashierID = &own
	}

	summaries, err := s.transactionRepo.Search(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return summaries, nil
}

func (s *checkoutService) GetTransaction(user AuthUser, id uuid.UUID) (*model.Transaction, error) {
	transaction, err := s.transactionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if !model.Can(user.Role, model.ActionTransactionViewAll) && transaction.UserID != user.ID {
		return nil, ErrForbidden
	}
	return transaction, nil
}

// VoidTransaction cancels a completed sale and restores the sold quantities.
func (s *checkoutService) VoidTransaction(ctx context.Context, user AuthUser, id uuid.UUID) (*model.Transaction, error) {
	return s.transition(ctx, user, id, model.StatusVoid, model.ActionTransactionVoid)
}

// RefundTransaction marks a completed sale refunded and restores stock.
func (s *checkoutService) RefundTransaction(ctx context.Context, user AuthUser, id uuid.UUID) (*model.Transaction, error) {
	return s.transition(ctx, user, id, model.StatusRefunded, model.ActionTransactionRefund)
}

// transition applies a status change and its stock restoration in one unit
// of work. Only completed transactions may move, and each target is terminal.
func (s *checkoutService) transition(ctx context.Context, user AuthUser, id uuid.UUID, next model.TransactionStatus, action model.Action) (*model.Transaction, error) {
	if !model.Can(user.Role, action) {
		return nil, ErrForbidden
	}

	ctx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	var result *model.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		transaction, err := s.transactionRepo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !transaction.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, transaction.Status, next)
		}

		if err := tx.Model(transaction).
			Updates(map[string]interface{}{"status": next, "updated_by": user.ID.String()}).Error; err != nil {
			return err
		}

		for _, item := range transaction.Items {
			if item.ProductID == nil {
				continue // product deleted since the sale; nothing to restore
			}
			if err := s.productRepo.RestoreStock(tx, *item.ProductID, item.Quantity, user.ID.String()); err != nil {
				return err
			}
		}

		transaction.Status = next
		result = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction status changed",
		zap.String("transaction_code", result.Code),
		zap.String("status", string(next)),
		zap.String("user_id", user.ID.String()))
	s.broadcastSale("sale_"+string(next), result, user)

	return result, nil
}

func (s *checkoutService) observeCheckout(status string, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.CheckoutsTotal.WithLabelValues(status).Inc()
	s.metrics.CheckoutLatency.Observe(float64(elapsed.Milliseconds()))
	if err != nil && errors.Is(err, ErrInsufficientStock) {
		s.metrics.StockConflicts.Inc()
	}
}

func (s *checkoutService) broadcastSale(event string, transaction *model.Transaction, user AuthUser) {
	if s.wsHub == nil {
		return
	}
	s.wsHub.BroadcastJSON(map[string]interface{}{
		"type":   "stock_update",
		"action": event,
		"transaction": map[string]interface{}{
			"id":     transaction.ID,
			"code":   transaction.Code,
			"total":  transaction.Total,
			"status": transaction.Status,
			"items":  len(transaction.Items),
		},
		"user": map[string]interface{}{
			"id":   user.ID,
			"name": user.Name,
		},
	})
}
