package service

import (
	"fmt"
	"testing"
	"time"

	"go-pos-backend/internal/codegen"
	"go-pos-backend/internal/model"
	"go-pos-backend/internal/repository"
	"go-pos-backend/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testDBTimeout = 5 * time.Second

func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Category{}, &model.Product{}, &model.User{}, &model.Transaction{}, &model.TransactionItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A single connection serializes concurrent writers the way row locks
	// do on Postgres, which keeps the shared-cache sqlite database happy.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Username: username, FullName: username, Role: role, IsActive: true}
	if err := user.SetPassword("secret123"); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *model.Category {
	t.Helper()
	cat := &model.Category{Name: name, IsActive: true}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return cat
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int, categoryID *uuid.UUID) *model.Product {
	t.Helper()
	product := &model.Product{
		Barcode:    "899" + uuid.NewString()[:10],
		Name:       name,
		CategoryID: categoryID,
		Price:      price,
		Cost:       price / 2,
		Stock:      stock,
		IsActive:   true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func newTestCheckoutService(t *testing.T, db *gorm.DB) CheckoutService {
	t.Helper()
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	gen := codegen.New(txRepo.CodeExists, productRepo.BarcodeExists)
	m := metrics.New(prometheus.NewRegistry())
	return NewCheckoutService(productRepo, txRepo, db, gen, nil, zaptest.NewLogger(t), m, 0.10, testDBTimeout)
}

func asAuthUser(u *model.User) AuthUser {
	return AuthUser{ID: u.ID, Name: u.FullName, Role: u.Role}
}
