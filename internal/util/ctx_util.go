package util

import (
	"context"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/auth/token"
)

// GetTokenPayloadFromContext 從請求上下文中獲取token payload
//
// 返回值:
//   - *token.Payload[uint]: 未登入或token無效時回傳nil
func GetTokenPayloadFromContext(ctx context.Context) *token.Payload[uint] {
	var tokenPayload *token.Payload[uint]

	if v := ctx.Value(constants.AuthorizationPayloadKey); v != nil {
		tokenPayload, _ = v.(*token.Payload[uint])
	}

	return tokenPayload
}

func GetRequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(constants.RequestIDKey); v != nil {
		if requestId, ok := v.(string); ok {
			return requestId
		}
	}
	return "unknown"
}
