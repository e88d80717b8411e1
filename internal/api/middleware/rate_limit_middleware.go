package middleware

import (
	"net/http"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/pkg/limiter"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// RateLimitMiddleware 以來源IP限流
// 掛在RealIP後面, RemoteAddr已經被換成真實IP
func RateLimitMiddleware(rateLimiter limiter.ILimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Allow(r.Context(), r.RemoteAddr) {
				api.ErrorJSON(w, int(er.TooManyRequestsCode), nil, er.ErrStrMap[er.TooManyRequestsCode])
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
