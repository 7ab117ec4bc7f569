package middleware

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	config "github.com/phillip/tour-booking-go/config"
)

// RateLimiter applies a fixed-window per-IP limit to the API surface. The
// counter is in-process; a multi-instance deployment needs a shared store.
func RateLimiter(cfg *config.Config) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		log.Fatalf("invalid RATE_LIMIT value %q: %v", cfg.RateLimit, err)
	}

	return mgin.NewMiddleware(limiter.New(memory.NewStore(), rate))
}
