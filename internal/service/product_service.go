package service

import (
	"errors"
	"fmt"

	"go-pos-backend/internal/codegen"
	"go-pos-backend/internal/model"
	"go-pos-backend/internal/repository"
	"go-pos-backend/internal/ws"
	"go-pos-backend/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductUpdateRequest carries the editable catalog fields.
type ProductUpdateRequest struct {
	Name       string     `json:"name" validate:"required"`
	CategoryID *uuid.UUID `json:"category_id"`
	Price      float64    `json:"price" validate:"gte=0"`
	Cost       float64    `json:"cost" validate:"gte=0"`
	Stock      int        `json:"stock" validate:"gte=0"`
	MinStock   int        `json:"min_stock" validate:"gte=0"`
	IsActive   bool       `json:"is_active"`
}

type ProductService interface {
	CreateProduct(user AuthUser, product *model.Product) error
	UpdateProduct(user AuthUser, id uuid.UUID, req *ProductUpdateRequest) (*model.Product, error)
	GetAllProducts(user AuthUser) ([]model.Product, error)
	GetProductByBarcode(user AuthUser, barcode string) (*model.Product, error)
	GetAllCategories() ([]model.Category, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	db           *gorm.DB
	codegen      *codegen.Generator
	wsHub        *ws.Hub
	logger       *zap.Logger
}

func NewProductService(
	pRepo repository.ProductRepository,
	cRepo repository.CategoryRepository,
	db *gorm.DB,
	gen *codegen.Generator,
	hub *ws.Hub,
	logger *zap.Logger,
) ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productService{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		db:           db,
		codegen:      gen,
		wsHub:        hub,
		logger:       logger,
	}
}

func (s *productService) CreateProduct(user AuthUser, product *model.Product) error {
	if !model.Can(user.Role, model.ActionProductCreate) {
		return ErrForbidden
	}

	if errs := validator.ValidateStruct(product); len(errs) > 0 {
		first := errs[0]
		return validationError("field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}
	if product.Price < 0 || product.Cost < 0 || product.Stock < 0 {
		return validationError("price, cost and stock must not be negative")
	}

	if product.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(*product.CategoryID); err != nil {
			return fmt.Errorf("%w: category %s", ErrNotFound, product.CategoryID)
		}
	}

	if product.Barcode == "" {
		barcode, err := s.codegen.Barcode()
		if err != nil {
			return err
		}
		product.Barcode = barcode
	} else {
		exists, err := s.productRepo.BarcodeExists(product.Barcode)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if exists {
			return validationError("barcode '%s' already exists", product.Barcode)
		}
	}

	product.IsActive = true
	product.CreatedBy = user.ID.String()
	product.UpdatedBy = user.ID.String()

	if err := s.productRepo.Create(product); err != nil {
		return err
	}

	s.logger.Info("product created",
		zap.String("barcode", product.Barcode),
		zap.String("name", product.Name),
		zap.String("user_id", user.ID.String()))
	s.broadcastProduct("product_created", product, user)

	return nil
}

// UpdateProduct edits catalog fields inside a transaction. Stock changes go
// through the inventory guard like every other stock mutation.
func (s *productService) UpdateProduct(user AuthUser, id uuid.UUID, req *ProductUpdateRequest) (*model.Product, error) {
	if !model.Can(user.Role, model.ActionProductUpdate) {
		return nil, ErrForbidden
	}

	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return nil, validationError("field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}

	var updated *model.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(existing).Updates(map[string]interface{}{
			"name":        req.Name,
			"category_id": req.CategoryID,
			"price":       req.Price,
			"cost":        req.Cost,
			"min_stock":   req.MinStock,
			"is_active":   req.IsActive,
			"updated_by":  user.ID.String(),
		}).Error; err != nil {
			return err
		}

		switch delta := req.Stock - existing.Stock; {
		case delta > 0:
			if err := s.productRepo.RestoreStock(tx, id, delta, user.ID.String()); err != nil {
				return err
			}
		case delta < 0:
			if err := s.productRepo.DecrementStock(tx, id, -delta, user.ID.String()); err != nil {
				return err
			}
		}

		updated, err = s.productRepo.FindByIDTx(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product updated",
		zap.String("barcode", updated.Barcode),
		zap.String("user_id", user.ID.String()))
	s.broadcastProduct("product_updated", updated, user)

	return updated, nil
}

func (s *productService) GetAllProducts(user AuthUser) ([]model.Product, error) {
	if !model.Can(user.Role, model.ActionProductView) {
		return nil, ErrForbidden
	}
	// Kasir terminals only need the sellable catalog
	activeOnly := user.Role == model.RoleKasir
	return s.productRepo.FindAll(activeOnly)
}

func (s *productService) GetProductByBarcode(user AuthUser, barcode string) (*model.Product, error) {
	if !model.Can(user.Role, model.ActionProductView) {
		return nil, ErrForbidden
	}
	product, err := s.productRepo.FindByBarcode(barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return product, nil
}

func (s *productService) GetAllCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *productService) broadcastProduct(event string, product *model.Product, user AuthUser) {
	if s.wsHub == nil {
		return
	}
	s.wsHub.BroadcastJSON(map[string]interface{}{
		"type":   "stock_update",
		"action": event,
		"product": map[string]interface{}{
			"id":      product.ID,
			"barcode": product.Barcode,
			"name":    product.Name,
			"stock":   product.Stock,
			"price":   product.Price,
		},
		"user": map[string]interface{}{
			"id":   user.ID,
			"name": user.Name,
		},
	})
}
