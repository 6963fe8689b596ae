package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/resto-orders/internal/app"
	"github.com/linemk/resto-orders/internal/app/handlers"
	"github.com/linemk/resto-orders/internal/config"
	"github.com/linemk/resto-orders/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/resto-orders/internal/lib/logger"
	"github.com/linemk/resto-orders/internal/lib/logger/handlers/urllog"
	"github.com/linemk/resto-orders/internal/service"
	"github.com/linemk/resto-orders/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	menuRepo := storage.NewMenuItemRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	cartService := service.NewCartService(application.Logger, application.DB, cartRepo, menuRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, orderRepo, cartRepo)

	// эндпоинт для аутентификации
	router.Post("/api/auth", handlers.AuthHandler(application.Logger, authService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)

		// корзина текущего пользователя
		r.Get("/cart", handlers.GetCartHandler(application.Logger, cartService))
		r.Post("/cart/items", handlers.AddCartItemHandler(application.Logger, cartService))
		r.Put("/cart/items/{id}", handlers.UpdateCartItemHandler(application.Logger, cartService))
		r.Delete("/cart/items/{id}", handlers.RemoveCartItemHandler(application.Logger, cartService))
		r.Delete("/cart", handlers.ClearCartHandler(application.Logger, cartService))
		r.Get("/cart/total", handlers.CartTotalHandler(application.Logger, cartService))

		// заказы
		r.Post("/orders", handlers.CreateOrderHandler(application.Logger, orderService))
		r.Get("/orders", handlers.ListOrdersHandler(application.Logger, orderService))
		r.Get("/orders/active", handlers.ActiveOrdersHandler(application.Logger, orderService))
		r.Get("/orders/number/{order_number}", handlers.GetOrderByNumberHandler(application.Logger, orderService))
		r.Get("/orders/status/{status}", handlers.OrdersByStatusHandler(application.Logger, orderService))
		r.Get("/orders/{id}", handlers.GetOrderHandler(application.Logger, orderService))
		r.Put("/orders/{id}", handlers.UpdateOrderHandler(application.Logger, orderService))
		r.Post("/orders/{id}/link", handlers.LinkCartHandler(application.Logger, orderService))
		r.Post("/orders/{id}/confirm", handlers.ConfirmOrderHandler(application.Logger, orderService))
		r.Post("/orders/{id}/cancel", handlers.CancelOrderHandler(application.Logger, orderService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
