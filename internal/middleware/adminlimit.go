package middleware

import (
	"net/http"

	"github.com/alphafinder/rategate/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const defaultAdminRate = "30-M"

// AdminRateLimit throttles the admin surface itself, per operator IP, using
// ulule/limiter over the same Redis instance. This is independent of the
// window-counter engine: a misbehaving operator script must not be able to
// hammer the control plane, and the control plane must stay usable while the
// engine is being cleared or inspected.
func AdminRateLimit(redisClient *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = defaultAdminRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{
		Prefix: "rategate_admin",
	})
	if err != nil {
		return nil, err
	}
	instance := limiter.New(store, parsed)
	keyGetter := func(r *http.Request) string {
		return request.ClientIP(r)
	}
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(keyGetter))
	return mw.Handler, nil
}
