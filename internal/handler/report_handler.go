package handler

import (
	"strconv"

	"go-pos-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetDashboardStats returns overview statistics for a period
// GET /api/v1/reports/dashboard-stats?period=
func (h *ReportHandler) GetDashboardStats(c *fiber.Ctx) error {
	period, err := service.ParsePeriod(c.Query("period"))
	if err != nil {
		return serviceError(c, err)
	}

	stats, err := h.service.DashboardStats(authUser(c), period)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"period": period, "data": stats})
}

// GetRevenueTrend returns the last 7 days of revenue, zero-filled
// GET /api/v1/reports/revenue-trend
func (h *ReportHandler) GetRevenueTrend(c *fiber.Ctx) error {
	trend, err := h.service.RevenueTrend(authUser(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(trend)
}

// GetSalesByCategory returns the per-category breakdown for a period
// GET /api/v1/reports/sales-by-category?period=
func (h *ReportHandler) GetSalesByCategory(c *fiber.Ctx) error {
	period, err := service.ParsePeriod(c.Query("period"))
	if err != nil {
		return serviceError(c, err)
	}

	sales, err := h.service.SalesByCategory(authUser(c), period)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(sales)
}

// GetTopProducts returns the best sellers for a period
// GET /api/v1/reports/top-products?period=&limit=
func (h *ReportHandler) GetTopProducts(c *fiber.Ctx) error {
	period, err := service.ParsePeriod(c.Query("period"))
	if err != nil {
		return serviceError(c, err)
	}

	limit, err := strconv.Atoi(c.Query("limit", "5"))
	if err != nil || limit <= 0 {
		limit = 5
	}

	products, err := h.service.TopProducts(authUser(c), period, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(products)
}
