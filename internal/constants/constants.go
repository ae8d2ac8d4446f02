package constants

const (
	AppName           = "storefront"
	AppUserService    = "user-service"
	AppProductService = "product-service"
	AppCartService    = "cart-service"
	AppOrderService   = "order-service"
	AppMigration      = "migration"
	AudienceUser      = "audience-user"
)

const (
	CacheKeyProduct      = "products:%s"
	CacheKeyLoginAttempt = "login_attempts:%s"
	CacheKeyRevokedToken = "revoked_tokens:%s"
	ChannelCart          = "cart:%s"
)

const (
	CartEventUpdated = "updated"
	CartEventCleared = "cleared"
)

const SessionKeyUserID = "userId"
