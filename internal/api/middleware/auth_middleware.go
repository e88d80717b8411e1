package middleware

import (
	"net/http"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/auth/token"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// AuthMiddleware 驗證ctx是否有token payload
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Value(constants.AuthorizationPayloadKey).(*token.Payload[uint])
		if !ok {
			api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminMiddleware 檢查登入用戶的is_admin旗標
// 旗標存在db而非token內, 撤銷管理權不用等token過期
func AdminMiddleware(dbDao db.UnifiedDB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := r.Context().Value(constants.AuthorizationPayloadKey).(*token.Payload[uint])
			if !ok {
				api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
				return
			}

			user, err := dbDao.GetUserByID(r.Context(), payload.UserID)
			if err != nil || !user.IsAdmin {
				api.ErrorJSON(w, int(er.UnauthorizedCode), nil, er.ErrStrMap[er.UnauthorizedCode])
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
