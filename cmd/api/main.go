package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-pos-backend/internal/codegen"
	"go-pos-backend/internal/config"
	"go-pos-backend/internal/handler"
	"go-pos-backend/internal/middleware"
	"go-pos-backend/internal/model"
	"go-pos-backend/internal/repository"
	"go-pos-backend/internal/service"
	"go-pos-backend/internal/ws"
	"go-pos-backend/pkg/database"
	"go-pos-backend/pkg/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1. Load env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	// 2. Setup database
	db := database.ConnectDB(cfg.DatabaseURL)
	db.AutoMigrate(&model.Category{}, &model.Product{}, &model.User{}, &model.Transaction{}, &model.TransactionItem{})

	// 3. Seed default categories and users
	seedDefaults(db)

	// 4. Setup WebSocket hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency injection (wiring layers)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)

	gen := codegen.New(txRepo.CodeExists, productRepo.BarcodeExists)
	posMetrics := metrics.New(prometheus.DefaultRegisterer)

	checkoutService := service.NewCheckoutService(productRepo, txRepo, db, gen, wsHub, zapLogger, posMetrics, cfg.TaxRate, cfg.DBTimeout)
	reportService := service.NewReportService(txRepo, zapLogger)
	productService := service.NewProductService(productRepo, categoryRepo, db, gen, wsHub, zapLogger)
	authService := service.NewAuthService(userRepo, zapLogger)

	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	reportHandler := handler.NewReportHandler(reportService)
	productHandler := handler.NewProductHandler(productService)
	authHandler := handler.NewAuthHandler(authService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Backend v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Request logging
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Catalog routes
	protected.Get("/products", middleware.RequirePermission(model.ActionProductView), productHandler.GetProducts)
	protected.Get("/products/barcode/:barcode", middleware.RequirePermission(model.ActionProductView), productHandler.GetProductByBarcode)
	protected.Post("/products", middleware.RequirePermission(model.ActionProductCreate), productHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePermission(model.ActionProductUpdate), productHandler.UpdateProduct)
	protected.Get("/categories", productHandler.GetCategories)

	// Checkout and ledger routes
	protected.Post("/checkout", middleware.RequirePermission(model.ActionCheckoutCreate), checkoutHandler.Checkout)
	protected.Get("/transactions", middleware.RequirePermission(model.ActionTransactionViewOwn), checkoutHandler.GetTransactions)
	protected.Get("/transactions/:id", middleware.RequirePermission(model.ActionTransactionViewOwn), checkoutHandler.GetTransaction)
	protected.Post("/transactions/:id/void", middleware.RequirePermission(model.ActionTransactionVoid), checkoutHandler.VoidTransaction)
	protected.Post("/transactions/:id/refund", middleware.RequirePermission(model.ActionTransactionRefund), checkoutHandler.RefundTransaction)

	// Report routes (admin only via capability table)
	reports := protected.Group("/reports", middleware.RequirePermission(model.ActionReportView))
	reports.Get("/dashboard-stats", reportHandler.GetDashboardStats)
	reports.Get("/revenue-trend", reportHandler.GetRevenueTrend)
	reports.Get("/sales-by-category", reportHandler.GetSalesByCategory)
	reports.Get("/top-products", reportHandler.GetTopProducts)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// WebSocket route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedDefaults creates the default categories plus an admin and a kasir user
// if they don't exist yet
func seedDefaults(db *gorm.DB) {
	categoryRepo := repository.NewCategoryRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := categoryRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed categories: %v", err)
	}

	seedUser := func(username, fullName, password string, role model.Role) {
		if _, err := userRepo.FindByUsername(username); err == nil {
			return
		}
		user := &model.User{
			Username: username,
			FullName: fullName,
			Role:     role,
			IsActive: true,
		}
		user.CreatedBy = "system"
		user.UpdatedBy = "system"

		if err := user.SetPassword(password); err != nil {
			log.Printf("Warning: Failed to hash password for %s: %v", username, err)
			return
		}
		if err := userRepo.Create(user); err != nil {
			log.Printf("Warning: Failed to create user %s: %v", username, err)
			return
		}
		log.Printf("✅ User created: %s / %s (%s)", username, password, role)
	}

	seedUser("admin", "Administrator", "admin123", model.RoleAdmin)
	seedUser("kasir", "Kasir Toko", "kasir123", model.RoleKasir)
}
