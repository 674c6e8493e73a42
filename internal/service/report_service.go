package service

import (
	"fmt"
	"time"

	"go-pos-backend/internal/model"
	"go-pos-backend/internal/repository"

	"go.uber.org/zap"
)

// Period is a named date window anchored to evaluation time.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod validates a period query parameter, defaulting to today.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return Period(s), nil
	case "":
		return PeriodToday, nil
	}
	return "", validationError("unknown period '%s'", s)
}

const defaultTopProductsLimit = 5

type ReportService interface {
	DashboardStats(user AuthUser, period Period) (*repository.DashboardStats, error)
	RevenueTrend(user AuthUser) ([]repository.DailyRevenue, error)
	SalesByCategory(user AuthUser, period Period) ([]repository.CategorySales, error)
	TopProducts(user AuthUser, period Period, limit int) ([]repository.ProductSales, error)
}

type reportService struct {
	transactionRepo repository.TransactionRepository
	logger          *zap.Logger
	now             func() time.Time
}

func NewReportService(tRepo repository.TransactionRepository, logger *zap.Logger) ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reportService{
		transactionRepo: tRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// periodWindow maps a period to an inclusive [start, end] window. A zero
// start means unbounded. Windows key off persisted created_at, evaluated
// against the injected clock.
func (s *reportService) periodWindow(period Period) (time.Time, time.Time) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case PeriodToday:
		return startOfDay, now
	case PeriodWeek:
		return startOfDay.AddDate(0, 0, -6), now
	case PeriodMonth:
		return startOfDay.AddDate(0, -1, 0), now
	case PeriodYear:
		return startOfDay.AddDate(-1, 0, 0), now
	default: // PeriodAll
		return time.Time{}, now
	}
}

func (s *reportService) DashboardStats(user AuthUser, period Period) (*repository.DashboardStats, error) {
	if !model.Can(user.Role, model.ActionReportView) {
		return nil, ErrForbidden
	}

	start, end := s.periodWindow(period)
	stats, err := s.transactionRepo.GetDashboardStats(start, end)
	if err != nil {
		s.logger.Error("dashboard stats query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stats, nil
}

// RevenueTrend returns the last 7 calendar days ascending, zero-filling
// days without any completed transaction.
func (s *reportService) RevenueTrend(user AuthUser) ([]repository.DailyRevenue, error) {
	if !model.Can(user.Role, model.ActionReportView) {
		return nil, ErrForbidden
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := startOfDay.AddDate(0, 0, -6)

	byDay, err := s.transactionRepo.GetRevenueByDay(start, now)
	if err != nil {
		s.logger.Error("revenue trend query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	trend := make([]repository.DailyRevenue, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format("2006-01-02")
		trend = append(trend, repository.DailyRevenue{
			Date:    key,
			DayName: day.Weekday().String(),
			Revenue: byDay[key],
		})
	}
	return trend, nil
}

func (s *reportService) SalesByCategory(user AuthUser, period Period) ([]repository.CategorySales, error) {
	if !model.Can(user.Role, model.ActionReportView) {
		return nil, ErrForbidden
	}

	start, end := s.periodWindow(period)
	sales, err := s.transactionRepo.GetSalesByCategory(start, end)
	if err != nil {
		s.logger.Error("sales by category query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return sales, nil
}

func (s *reportService) TopProducts(user AuthUser, period Period, limit int) ([]repository.ProductSales, error) {
	if !model.Can(user.Role, model.ActionReportView) {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = defaultTopProductsLimit
	}

	start, end := s.periodWindow(period)
	products, err := s.transactionRepo.GetTopProducts(start, end, limit)
	if err != nil {
		s.logger.Error("top products query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return products, nil
}
