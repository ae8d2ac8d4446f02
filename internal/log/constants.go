package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyToken              = "token"
	KeyTokenID            = "tokenId"
	KeyEmail              = "email"
	KeyTag                = "tag"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyConfig             = "config"
	KeyDbURL              = "dbURL"
	KeyMigrationPath      = "migrationPath"
	KeyCacheKey           = "cacheKey"
	KeyJsonCache          = "jsonCache"
	KeyUserID             = "userId"
	KeyUser               = "user"
	KeyProductID          = "productId"
	KeyProduct            = "product"
	KeyProducts           = "products"
	KeyCategory           = "category"
	KeyCartID             = "cartId"
	KeyCart               = "cart"
	KeyCartItemID         = "cartItemId"
	KeyCartItem           = "cartItem"
	KeyCartTotal          = "cartTotal"
	KeyQuantity           = "quantity"
	KeyQuantityDelta      = "quantityDelta"
	KeyStockQuantity      = "stockQuantity"
	KeyOrderID            = "orderId"
	KeyOrder              = "order"
	KeyOrders             = "orders"
	KeyOrderDetailID      = "orderDetailId"
	KeyOrderDetail        = "orderDetail"
	KeyTransactionID      = "transactionId"
	KeyPaymentProvider    = "paymentProvider"
	KeyChannel            = "channel"
	KeyEvent              = "event"
	KeyPathValues         = "pathValues"
	KeyLoginAttempts      = "loginAttempts"
	KeyRequestProcessedAt = "requestProcessedAt"
)
