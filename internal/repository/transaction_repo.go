package repository

import (
	"time"

	"go-pos-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionFilter narrows the ledger search. Nil/empty fields are ignored.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	CashierID *uuid.UUID
	Status    model.TransactionStatus
	Search    string // matches transaction code or cashier name
}

// DashboardStats holds the aggregated dashboard figures for a period.
type DashboardStats struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalTransactions int64   `json:"total_transactions"`
	ItemsSold         int64   `json:"items_sold"`
	AvgTransaction    float64 `json:"avg_transaction"`
}

// DailyRevenue is one row of the revenue trend chart.
type DailyRevenue struct {
	Date    string  `json:"date"`
	DayName string  `json:"day_name"`
	Revenue float64 `json:"revenue"`
}

// CategorySales is one row of the per-category breakdown.
type CategorySales struct {
	CategoryName string  `json:"category_name"`
	ItemCount    int64   `json:"item_count"`
	TotalSales   float64 `json:"total_sales"`
}

// ProductSales is one row of the top-products ranking.
type ProductSales struct {
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	TotalSold    int64     `json:"total_sold"`
	TotalRevenue float64   `json:"total_revenue"`
}

type TransactionRepository interface {
	CodeExists(code string) (bool, error)
	FindByID(id uuid.UUID) (*model.Transaction, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)
	Search(filter TransactionFilter) ([]model.TransactionSummary, error)
	GetDashboardStats(start, end time.Time) (*DashboardStats, error)
	GetRevenueByDay(start, end time.Time) (map[string]float64, error)
	GetSalesByCategory(start, end time.Time) ([]CategorySales, error)
	GetTopProducts(start, end time.Time, limit int) ([]ProductSales, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) CodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Transaction{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *transactionRepo) FindByID(id uuid.UUID) (*model.Transaction, error) {
	return r.FindByIDTx(r.db, id)
}

func (r *transactionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := tx.Preload("Items").Preload("User").First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) Search(filter TransactionFilter) ([]model.TransactionSummary, error) {
	q := r.db.Model(&model.Transaction{}).
		Select(`transactions.id, transactions.code, transactions.user_id,
			COALESCE(users.full_name, '') AS cashier_name,
			transactions.total, transactions.payment_method, transactions.status,
			transactions.created_at,
			(SELECT COALESCE(SUM(ti.quantity), 0) FROM transaction_items ti
				WHERE ti.transaction_id = transactions.id AND ti.deleted_at IS NULL) AS item_count`).
		Joins("LEFT JOIN users ON users.id = transactions.user_id")

	if filter.StartDate != nil {
		q = q.Where("transactions.created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("transactions.created_at <= ?", *filter.EndDate)
	}
	if filter.CashierID != nil {
		q = q.Where("transactions.user_id = ?", *filter.CashierID)
	}
	if filter.Status != "" {
		q = q.Where("transactions.status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("transactions.code LIKE ? OR users.full_name LIKE ?", like, like)
	}

	var summaries []model.TransactionSummary
	err := q.Order("transactions.created_at DESC").Scan(&summaries).Error
	return summaries, err
}

// completedInWindow scopes an aggregation to committed sales only.
func (r *transactionRepo) completedInWindow(start, end time.Time) *gorm.DB {
	q := r.db.Model(&model.Transaction{}).Where("transactions.status = ?", model.StatusCompleted)
	if !start.IsZero() {
		q = q.Where("transactions.created_at >= ?", start)
	}
	if !end.IsZero() {
		q = q.Where("transactions.created_at <= ?", end)
	}
	return q
}

func (r *transactionRepo) GetDashboardStats(start, end time.Time) (*DashboardStats, error) {
	var stats DashboardStats

	row := struct {
		Revenue float64
		Count   int64
	}{}
	err := r.completedInWindow(start, end).
		Select("COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS count").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = row.Revenue
	stats.TotalTransactions = row.Count

	err = r.completedInWindow(start, end).
		Joins("JOIN transaction_items ON transaction_items.transaction_id = transactions.id AND transaction_items.deleted_at IS NULL").
		Select("COALESCE(SUM(transaction_items.quantity), 0)").
		Scan(&stats.ItemsSold).Error
	if err != nil {
		return nil, err
	}

	if stats.TotalTransactions > 0 {
		stats.AvgTransaction = model.Round2(stats.TotalRevenue / float64(stats.TotalTransactions))
	}
	return &stats, nil
}

// GetRevenueByDay aggregates completed revenue per calendar day, keyed by
// "YYYY-MM-DD". Days with no sales are absent; the service zero-fills.
func (r *transactionRepo) GetRevenueByDay(start, end time.Time) (map[string]float64, error) {
	rows, err := r.completedInWindow(start, end).
		Select("DATE(transactions.created_at) AS date, COALESCE(SUM(total), 0) AS revenue").
		Group("DATE(transactions.created_at)").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var date string
		var revenue float64
		if err := rows.Scan(&date, &revenue); err != nil {
			return nil, err
		}
		if len(date) > 10 {
			date = date[:10]
		}
		result[date] = revenue
	}
	return result, rows.Err()
}

func (r *transactionRepo) GetSalesByCategory(start, end time.Time) ([]CategorySales, error) {
	var results []CategorySales
	err := r.completedInWindow(start, end).
		Joins("JOIN transaction_items ON transaction_items.transaction_id = transactions.id AND transaction_items.deleted_at IS NULL").
		Joins("LEFT JOIN products ON products.id = transaction_items.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Select(`COALESCE(categories.name, 'Uncategorized') AS category_name,
			COALESCE(SUM(transaction_items.quantity), 0) AS item_count,
			COALESCE(SUM(transaction_items.line_total), 0) AS total_sales`).
		Group("COALESCE(categories.name, 'Uncategorized')").
		Order("total_sales DESC").
		Scan(&results).Error
	return results, err
}

func (r *transactionRepo) GetTopProducts(start, end time.Time, limit int) ([]ProductSales, error) {
	var results []ProductSales
	err := r.completedInWindow(start, end).
		Joins("JOIN transaction_items ON transaction_items.transaction_id = transactions.id AND transaction_items.deleted_at IS NULL").
		Where("transaction_items.product_id IS NOT NULL").
		Select(`transaction_items.product_id AS product_id,
			MAX(transaction_items.product_name) AS name,
			COALESCE(SUM(transaction_items.quantity), 0) AS total_sold,
			COALESCE(SUM(transaction_items.line_total), 0) AS total_revenue`).
		Group("transaction_items.product_id").
		Order("total_sold DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}
