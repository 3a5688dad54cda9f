package route

import (
	appcontext "github.com/SeakMengs/AutoCertLMS/internal/app_context"
	"github.com/SeakMengs/AutoCertLMS/internal/controller"
	"github.com/SeakMengs/AutoCertLMS/internal/middleware"
	ratelimiter "github.com/SeakMengs/AutoCertLMS/internal/rate_limiter"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires middlewares and every api route onto a fresh engine.
func NewRouter(app *appcontext.Application, rateLimiter *ratelimiter.FixedWindowRateLimiter) *gin.Engine {
	_middleware := middleware.NewMiddleware(app, rateLimiter)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	// Multipart uploads beyond this are spooled to disk
	r.MaxMultipartMemory = 8 << 20

	_controller := controller.NewController(app)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")

	V1_Sessions(rApi, _controller, _middleware)

	return r
}
