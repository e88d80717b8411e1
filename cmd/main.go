package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/handler"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/router"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/appcontext"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/config"
)

// @title englischbuecher backend
// @version 1.0
// @description 英文書店後端

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token. Example: "Bearer {token}"

func main() {
	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		log.Fatal(err)
		return
	}

	// 初始化 handler
	server := api.NewServer(
		handler.NewAuthHandler(app.AuthService),
		handler.NewBookHandler(app.BookService),
		handler.NewCartHandler(app.CartService, app.WishlistService),
		handler.NewShippingHandler(app.ShippingService, app.BookService),
		handler.NewPaymentHandler(app.PaymentService),
		handler.NewOrderHandler(app.OrderService),
		handler.NewContentHandler(app.ContentService),
	)

	// 設置路由
	r := router.SetupRouter(server, router.RouterDeps{
		TokenMaker:   app.TokenMaker,
		DbDao:        app.DbDao,
		QuoteLimiter: app.QuoteLimiter,
		AssetDir:     app.Cf.AssetDir,
		Logger:       app.Logger,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler: r,
	}

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutDownCompleted := make(chan struct{}, 1)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Application shutdown error: %v", err)
		}

		shutDownCompleted <- struct{}{}
	}()

	// 啟動服務
	log.Printf("Server starting on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
	<-shutDownCompleted
	log.Printf("closed completed")
}
