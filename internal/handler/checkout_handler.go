package handler

import (
	"time"

	"go-pos-backend/internal/model"
	"go-pos-backend/internal/repository"
	"go-pos-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CheckoutHandler struct {
	service service.CheckoutService
}

func NewCheckoutHandler(s service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: s}
}

// Checkout commits a cart as a sale
// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.service.Checkout(c.Context(), authUser(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(201).JSON(result)
}

// GetTransactions lists ledger summaries with optional filters
// GET /api/v1/transactions?start_date=&end_date=&cashier_id=&status=&search=
func (h *CheckoutHandler) GetTransactions(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{
		Status: model.TransactionStatus(c.Query("status")),
		Search: c.Query("search"),
	}

	if v := c.Query("start_date"); v != "" {
		start, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid start_date, expected YYYY-MM-DD"})
		}
		filter.StartDate = &start
	}
	if v := c.Query("end_date"); v != "" {
		end, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid end_date, expected YYYY-MM-DD"})
		}
		end = end.Add(24*time.Hour - time.Nanosecond) // inclusive end of day
		filter.EndDate = &end
	}
	if v := c.Query("cashier_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid cashier_id"})
		}
		filter.CashierID = &id
	}

	transactions, err := h.service.ListTransactions(authUser(c), filter)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(transactions)
}

// GetTransaction returns a header plus its line items
// GET /api/v1/transactions/:id
func (h *CheckoutHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	transaction, err := h.service.GetTransaction(authUser(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(transaction)
}

// VoidTransaction cancels a completed sale and restores stock
// POST /api/v1/transactions/:id/void
func (h *CheckoutHandler) VoidTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	transaction, err := h.service.VoidTransaction(c.Context(), authUser(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction voided", "data": transaction})
}

// RefundTransaction marks a completed sale refunded and restores stock
// POST /api/v1/transactions/:id/refund
func (h *CheckoutHandler) RefundTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	transaction, err := h.service.RefundTransaction(c.Context(), authUser(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction refunded", "data": transaction})
}
