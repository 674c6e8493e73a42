package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go-pos-backend/internal/model"
	"go-pos-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestCheckoutComputesTotalsFromAuthoritativePrices(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newTestCheckoutService(t, db)
	kasir := seedUser(t, db, "kasir1", model.RoleKasir)
	productA := seedProduct(t, db, "Teh Botol", 3500, 10, nil)
	productB := seedProduct(t, db, "Nasi Goreng", 5000, 10, nil)

	result, err := svc.Checkout(context.Background(), asAuthUser(kasir), &CheckoutRequest{
		Items: []CartItem{
			// Client-echoed prices are lies; the catalog wins.
			{ProductID: productA.ID, Quantity: 2, UnitPrice: 1},
			{ProductID: productB.ID, Quantity: 1, UnitPrice: 1},
		},
		PaymentMethod: model.PaymentCash,
		AmountPaid:    15000,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if result.Total != 13200 {
		t.Fatalf("expected total 13200, got %v", result.Total)
	}
	if result.Change != 1800 {
		t.Fatalf("expected change 1800, got %v", result.Change)
	}
	if !strings.HasPrefix(result.TransactionCode, "TRX-") {
		t.Fatalf("unexpected code %q", result.TransactionCode)
	}

	var committed model.Transaction
	if err := db.Preload("Items").First(&committed, "id = ?", result.TransactionID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if committed.Subtotal != 12000 || committed.Tax != 1200 {
		t.Fatalf("expected subtotal 12000 tax 1200, got %v / %v", committed.Subtotal, committed.Tax)
	}
	if committed.Total != committed.Subtotal+committed.Tax {
		t.Fatalf("total invariant broken: %v != %v + %v", committed.Total, committed.Subtotal, committed.Tax)
	}
	var itemSum float64
	for _, item := range committed.Items {
		if item.LineTotal != float64(item.Quantity)*item.UnitPrice {
			t.Fatalf("line total invariant broken for %s", item.ProductName)
		}
		itemSum += item.LineTotal
	}
	if itemSum != committed.Subtotal {
		t.Fatalf("subtotal %v != item sum %v", committed.Subtotal, itemSum)
	}

	var reloaded model.Product
	if err := db.First(&reloaded, "id = ?", productA.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 8 {
		t.Fatalf("expected stock 8 after selling 2, got %d", reloaded.Stock)
	}
}

func TestCheckoutRejectsInsufficientCashPayment(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newTestCheckoutService(t, db)
	kasir := seedUser(t, db, "kasir1", model.RoleKasir)
	product := seedProduct(t, db, "Kopi", 10000, 5, nil)

	_, err := svc.Checkout(context.Background(), asAuthUser(kasir), &CheckoutRequest{
		Items:         []CartItem{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: model.PaymentCash,
		AmountPaid:    5000,
	})
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
	var checkoutErr *CheckoutError
	if !errors.As(err, &checkoutErr) {
		t.Fatalf("expected failure to be wrapped in CheckoutError, got %T", err)
	}

	assertNothingPersisted(t, db, product.ID, 5)
}

func TestCheckoutRollsBackOnInsufficientStock(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newTestCheckoutService(t, db)
	kasir := seedUser(t, db, "kasir1", model.RoleKasir)
	cheap := seedProduct(t, db, "Permen", 500, 100, nil)
	scarce := seedProduct(t, db, "Rokok", 25000, 1, nil)

	_, err := svc.Checkout(context.Background(), asAuthUser(kasir), &CheckoutRequest{
		Items: []CartItem{
			{ProductID: cheap.ID, Quantity: 10},
			{ProductID: scarce.ID, Quantity: 2},
		},
		PaymentMethod: model.PaymentQRIS,
		AmountPaid:    100000,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// The decrement of the first product must have been rolled back too.
	assertNothingPersisted(t, db, cheap.ID, 100)
	assertNothingPersisted(t, db, scarce.ID, 1)
}

func TestCheckoutValidation(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newTestCheckoutService(t, db)
	kasir := seedUser(t, db, "kasir1", model.RoleKasir)
	product := seedProduct(t, db, "Air Mineral", 3000, 10, nil)

	cases := []struct {
		name string
		req  *CheckoutRequest
	}{
		{"empty cart", &CheckoutRequest{Items: nil, PaymentMethod: model.PaymentCash, AmountPaid: 1000}},
		{"zero quantity", &CheckoutRequest{
			Items:         []CartItem{{ProductID: product.ID, Quantity: 0}},
			PaymentMethod: model.PaymentCash,
			AmountPaid:    1000,
		}},
		{"negative quantity", &CheckoutRequest{
			Items:         []CartItem{{ProductID: product.ID, Quantity: -1}},
			PaymentMethod: model.PaymentCash,
			AmountPaid:    1000,
		}},
		{"unknown payment method", &CheckoutRequest{
			Items:         []CartItem{{ProductID: product.ID, Quantity: 1}},
			PaymentMethod: "cek",
			AmountPaid:    1000,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Checkout(context.Background(), asAuthUser(kasir), tc.req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	assertNothingPersisted(t, db, product.ID, 10)
}

func TestCheckoutUnknownProduct(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newTestCheckoutService(t, db)
	kasir := seedUser(t, db, "kasir1", model.RoleKasir)

	_, err := svc.Checkout(context.Background(), asAuthUser(kasir), &CheckoutRequest{
		Items:         []CartItem{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: model.PaymentCash,
		AmountPaid:    1000,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newTestCheckoutService(t, db)
	kasir := seedUser(t, db, "kasir1", model.RoleKasir)
	product := seedProduct(t, db, "Limited Edition", 9999, 1, nil)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), asAuthUser(kasir), &CheckoutRequest{
				Items:         []CartItem{{ProductID: product.ID, Quantity: 1}},
				PaymentMethod: model.PaymentQRIS,
				AmountPaid:    10998.9,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, stockFailures int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientStock):
			stockFailures++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || stockFailures != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d stock failures", successes, stockFailures)
	}

	var reloaded model.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 0 {
		t.Fatalf("expected final stock 0, got %d", reloaded.Stock)
	}

	var count int64
	db.Model(&model.Transaction{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one committed transaction, got %d", count)
	}
}

func TestCheckoutForbiddenWithoutCapability(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newTestCheckoutService(t, db)

	_, err := svc.Checkout(context.Background(), AuthUser{Role: "guest"}, &CheckoutRequest{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestVoidRestoresStockAndIsTerminal(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newTestCheckoutService(t, db)
	admin := seedUser(t, db, "admin1", model.RoleAdmin)
	kasir := seedUser(t, db, "kasir1", model.RoleKasir)
	product := seedProduct(t, db, "Susu", 15000, 10, nil)

	result, err := svc.Checkout(context.Background(), asAuthUser(kasir), &CheckoutRequest{
		Items:         []CartItem{{ProductID: product.ID, Quantity: 3}},
		PaymentMethod: model.PaymentTransfer,
		AmountPaid:    49500,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// Kasir may not void.
	if _, err := svc.VoidTransaction(context.Background(), asAuthUser(kasir), result.TransactionID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for kasir void, got %v", err)
	}

	voided, err := svc.VoidTransaction(context.Background(), asAuthUser(admin), result.TransactionID)
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if voided.Status != model.StatusVoid {
		t.Fatalf("expected status void, got %s", voided.Status)
	}

	var reloaded model.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", reloaded.Stock)
	}

	// Void is terminal.
	if _, err := svc.RefundTransaction(context.Background(), asAuthUser(admin), result.TransactionID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestListTransactionsScopesKasirToOwnRows(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := newTestCheckoutService(t, db)
	admin := seedUser(t, db, "admin1", model.RoleAdmin)
	kasirA := seedUser(t, db, "kasirA", model.RoleKasir)
	kasirB := seedUser(t, db, "kasirB", model.RoleKasir)
	product := seedProduct(t, db, "Roti", 8000, 100, nil)

	for _, u := range []*model.User{kasirA, kasirA, kasirB} {
		if _, err := svc.Checkout(context.Background(), asAuthUser(u), &CheckoutRequest{
			Items:         []CartItem{{ProductID: product.ID, Quantity: 1}},
			PaymentMethod: model.PaymentCash,
			AmountPaid:    8800,
		}); err != nil {
			t.Fatalf("checkout: %v", err)
		}
	}

	own, err := svc.ListTransactions(asAuthUser(kasirA), repository.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("expected kasirA to see 2 transactions, got %d", len(own))
	}
	for _, s := range own {
		if s.UserID != kasirA.ID {
			t.Fatalf("kasirA saw a foreign transaction %s", s.Code)
		}
		if s.ItemCount != 1 {
			t.Fatalf("expected item_count 1, got %d", s.ItemCount)
		}
	}

	all, err := svc.ListTransactions(asAuthUser(admin), repository.TransactionFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected admin to see 3 transactions, got %d", len(all))
	}

	// Kasir cannot read another cashier's transaction detail either.
	foreign, err := svc.ListTransactions(asAuthUser(kasirB), repository.TransactionFilter{})
	if err != nil {
		t.Fatalf("list kasirB: %v", err)
	}
	if _, err := svc.GetTransaction(asAuthUser(kasirA), foreign[0].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// assertNothingPersisted verifies a failed checkout left zero rows behind
// and did not touch stock.
func assertNothingPersisted(t *testing.T, db *gorm.DB, productID uuid.UUID, wantStock int) {
	t.Helper()

	var txCount, itemCount int64
	if err := db.Model(&model.Transaction{}).Count(&txCount).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if err := db.Model(&model.TransactionItem{}).Count(&itemCount).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if txCount != 0 || itemCount != 0 {
		t.Fatalf("expected zero persisted rows, got %d transactions and %d items", txCount, itemCount)
	}

	var product model.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if product.Stock != wantStock {
		t.Fatalf("expected stock %d, got %d", wantStock, product.Stock)
	}
}
