package constants

import "time"

type ContextKey string

const (
	RequestIDKey            ContextKey = "request_id"
	AuthorizationPayloadKey ContextKey = "authorization_payload"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "bearer"
)

const (
	AccessTokenDuration  = 1 * time.Hour
	RefreshTokenDuration = 168 * time.Hour

	PasswordResetTokenDuration = 30 * time.Minute
)

// 運送報價相關
const (
	// 運送方法查詢快取時間
	MethodCacheTTL = 30 * time.Minute
	// 完整報價快取時間
	QuoteCacheTTL = 30 * time.Second
	// 重量分桶大小(克), 相近的購物車共用同一份報價
	WeightBucketGrams = 25
	// 對外呼叫的超時時間
	CarrierTimeout = 20 * time.Second

	RateCacheCapacity = 256
)

// 包裝模型預設值, 未量測的書目欄位用這組補值
const (
	DefaultBookWeightGrams = 450
	DefaultBookWidthCm     = 13.5
	DefaultBookHeightCm    = 21.5
	DefaultBookThicknessCm = 2.5
	PackagingFixedGrams    = 60
	PackagingPerItemGrams  = 20
	PackagingPaddingLWCm   = 3.0
	PackagingPaddingHCm    = 1.0
)

// 金流
const (
	SettlementCurrency = "eur"
	// 支付處理商的最低收費額(歐元)
	MinOrderTotal = "0.50"
)

const SelfPickupCarrier = "self_pickup"
