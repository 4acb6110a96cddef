package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/bgovha/shopsphere-backend/internal/api"
	"github.com/bgovha/shopsphere-backend/internal/config"
	"github.com/bgovha/shopsphere-backend/internal/repository"
	"github.com/bgovha/shopsphere-backend/internal/service"
	"github.com/bgovha/shopsphere-backend/migrations"
)

func connectDB(cfg *config.Config) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Info().Msgf("Connected to DB %s", cfg.DBName)
				return db, nil
			}
		}
		log.Warn().Msgf("Retry %d: failed to connect to DB %s: %v", i+1, cfg.DBName, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s after retries: %v", cfg.DBName, err)
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	db, err := connectDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := migrations.AutoMigrate(db, 3); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate schema")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	kafkaWriter := cfg.NewKafkaWriter("order-topic")

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	userService := service.NewUserService(userRepo, rdb, cfg.JWTSecret)
	productService := service.NewProductService(productRepo, categoryRepo, rdb)
	orderService := service.NewOrderService(orderRepo, kafkaWriter, rdb)

	userHandler := api.NewUserHandler(userService)
	productHandler := api.NewProductHandler(productService)
	orderHandler := api.NewOrderHandler(orderService)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(10),
				Burst:     30,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.JwtCustomClaims)
		},
	})

	e.POST("/api/auth/register", userHandler.Register)
	e.POST("/api/auth/login", userHandler.Login)

	users := e.Group("/api/users", jwtMiddleware)
	users.GET("/:id", userHandler.GetUserByID)

	e.GET("/api/categories", productHandler.GetCategories)
	e.GET("/api/categories/:id", productHandler.GetCategoryByID)
	categories := e.Group("/api/categories", jwtMiddleware)
	categories.POST("", productHandler.CreateCategory)
	categories.PUT("/:id", productHandler.UpdateCategory)
	categories.DELETE("/:id", productHandler.DeleteCategory)

	e.GET("/api/products", productHandler.GetProducts)
	e.GET("/api/products/:id", productHandler.GetProductByID)
	e.GET("/api/products/:id/stock", productHandler.GetProductStock)
	products := e.Group("/api/products", jwtMiddleware)
	products.POST("", productHandler.CreateProduct)
	products.PUT("/:id", productHandler.UpdateProduct)
	products.DELETE("/:id", productHandler.DeleteProduct)
	products.POST("/:id/restock", productHandler.Restock)

	orders := e.Group("/api/orders", jwtMiddleware)
	orders.POST("", orderHandler.CreateOrder)
	orders.GET("", orderHandler.ListOrders)
	orders.GET("/:id", orderHandler.GetOrder)
	orders.DELETE("/:id", orderHandler.CancelOrder)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "shopsphere-backend",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	e.Logger.Fatal(e.Start(cfg.HTTPAddr))
}
