package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api"
	m "github.com/neilconnor2003/englischbuecher-sub001/internal/api/middleware"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/auth/token"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/pkg/limiter"
)

type RouterDeps struct {
	TokenMaker   token.Maker[uint]
	DbDao        db.UnifiedDB
	QuoteLimiter limiter.ILimiter
	AssetDir     string
	Logger       *zerolog.Logger
}

func SetupRouter(server *api.Server, deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.AuthPayloadMiddleware(deps.TokenMaker))
	r.Use(m.LoggerMiddleware(deps.Logger))
	r.Use(m.RecoverMiddleware(deps.Logger))

	// 前端上傳的頁面圖片
	if deps.AssetDir != "" {
		fileServer := http.StripPrefix("/assets/", http.FileServer(http.Dir(deps.AssetDir)))
		r.Get("/assets/*", fileServer.ServeHTTP)
	}

	// stripe webhook不放在/api/v1下, 驗簽取代登入
	r.Post("/webhooks/stripe", server.PaymentHandler.Webhook)

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		//Auth相關路由
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", server.AuthHandler.Register)
			r.Post("/login", server.AuthHandler.Login)
			r.Post("/login/google", server.AuthHandler.GoogleLogin)
			r.Post("/refresh-token", server.AuthHandler.ReNewToken)
			r.Post("/logout", server.AuthHandler.LogOut)
			r.Post("/forgot-password", server.AuthHandler.ForgotPassword)
			r.Post("/reset-password", server.AuthHandler.ResetPassword)
			r.With(m.AuthMiddleware).Get("/me", server.AuthHandler.Me)
		})

		//書目瀏覽不用登入
		r.Route("/books", func(r chi.Router) {
			r.Get("/", server.BookHandler.List)
			r.Get("/{id}", server.BookHandler.Get)
		})

		//購物車與願望清單
		r.Group(func(r chi.Router) {
			r.Use(m.AuthMiddleware)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", server.CartHandler.GetCart)
				r.Delete("/", server.CartHandler.ClearCart)
				r.Put("/items", server.CartHandler.SetItem)
				r.Delete("/items/{id}", server.CartHandler.RemoveItem)
			})
			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", server.CartHandler.GetWishlist)
				r.Post("/", server.CartHandler.AddToWishlist)
				r.Delete("/{id}", server.CartHandler.RemoveFromWishlist)
			})
		})

		//運費報價, 對外打報價商API所以要限流
		r.Group(func(r chi.Router) {
			if deps.QuoteLimiter != nil {
				r.Use(m.RateLimitMiddleware(deps.QuoteLimiter))
			}
			r.Post("/shipping/quote", server.ShippingHandler.Quote)
		})

		//結帳, 訪客也可以用
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/intent", server.PaymentHandler.CreateIntent)
			r.Post("/finalize", server.PaymentHandler.Finalize)
		})

		//訂單, 下單允許訪客
		r.Post("/orders", server.OrderHandler.Place)
		r.Get("/orders/{id}", server.OrderHandler.Get)
		r.With(m.AuthMiddleware).Get("/orders", server.OrderHandler.MyOrders)

		//CMS頁面
		r.Get("/pages/{slug}", server.ContentHandler.Get)

		//管理端
		r.Group(func(r chi.Router) {
			r.Use(m.AuthMiddleware)
			r.Use(m.AdminMiddleware(deps.DbDao))
			r.Route("/admin", func(r chi.Router) {
				r.Post("/books", server.BookHandler.Create)
				r.Put("/books/{id}", server.BookHandler.Update)
				r.Post("/books/{id}/stock", server.BookHandler.AddStock)
				r.Delete("/books/{id}", server.BookHandler.Delete)

				r.Get("/orders", server.OrderHandler.List)
				r.Patch("/orders/{id}/status", server.OrderHandler.UpdateStatus)

				r.Post("/shipping/label", server.ShippingHandler.PurchaseLabel)

				r.Put("/pages/{slug}", server.ContentHandler.Update)
				r.Post("/pages/{slug}/image", server.ContentHandler.UploadImage)
			})
		})
	})

	return r
}
