package repository

import (
	"errors"

	"go-pos-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned by DecrementStock when the conditional
// update matches no row, i.e. the product is missing or would go negative.
var ErrInsufficientStock = errors.New("insufficient stock remaining")

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll(activeOnly bool) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	FindByBarcode(barcode string) (*model.Product, error)
	BarcodeExists(barcode string) (bool, error)
	Update(product *model.Product) error
	DecrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error
	RestoreStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll(activeOnly bool) ([]model.Product, error) {
	var products []model.Product
	q := r.db.Preload("Category").Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	return r.FindByIDTx(r.db, id)
}

// FindByIDTx reads through the given handle so the checkout pipeline can
// fetch the authoritative price and stock inside its own transaction.
func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := tx.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByBarcode(barcode string) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "barcode = ?", barcode).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) BarcodeExists(barcode string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Product{}).Where("barcode = ?", barcode).Count(&count).Error
	return count > 0, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

// DecrementStock is the inventory consistency guard. The conditional update
// checks and subtracts in a single statement, so concurrent checkouts against
// the same product can never drive stock below zero: the loser simply matches
// no row and gets ErrInsufficientStock.
func (r *productRepo) DecrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStock adds units back on void/refund, within the caller's transaction.
func (r *productRepo) RestoreStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_by": updatedBy,
		}).Error
}
