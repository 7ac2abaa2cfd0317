package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/ratelimit"
)

// Options carries the router dependencies that are not handlers.
type Options struct {
	ClientOrigin string
	Logger       *logrus.Logger
	// TrustedProxies are the proxies allowed to set X-Forwarded-For. When
	// empty the client IP is the TCP peer address.
	TrustedProxies []string
	// Limiter throttles the public write endpoints; nil disables throttling.
	Limiter *ratelimit.Limiter
	// LiveFeed serves the admin order-event WebSocket; nil disables the route.
	LiveFeed http.Handler
}

// CORSMiddleware tells the browser that the configured client origin may call us.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Allow ONLY the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Vary", "Origin")

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use (specifically "Authorization" for JWT tokens)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")

		// 4. Allow the HTTP methods we use in our API
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		// 5. Answer the preflight OPTIONS request with 204 No Content
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		opts.Logger.WithError(err).Warn("Invalid trusted proxies; forwarded headers are ignored")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.Logger))

	// --- APPLY THE CORS GUARD ---
	router.Use(CORSMiddleware(opts.ClientOrigin))

	router.Static("/uploads", h.UploadDir)

	requireAuth := middleware.AuthMiddleware(h.Tokens)
	requireAdmin := middleware.AdminMiddleware(h.Users)
	throttle := ratelimit.Middleware(opts.Limiter)

	api := router.Group("/api")
	{
		// --- Ping Route (Public) ---
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})
		api.GET("/pricing", h.GetPricing)
		api.GET("/categories", h.GetCategories)

		// --- Auth Routes ---
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", h.Register)
			authRoutes.POST("/login", h.Login)
			authRoutes.GET("/me", requireAuth, h.GetMe)
		}

		// --- Catalog ---
		products := api.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.GET("/slug/:slug", h.GetProductBySlug)
			products.GET("/:id", h.GetProduct)
			products.GET("/:id/reviews", h.GetReviews)
			products.POST("/:id/reviews", requireAuth, h.CreateReview)

			products.POST("", requireAuth, requireAdmin, h.CreateProduct)
			products.PUT("/:id", requireAuth, requireAdmin, h.UpdateProduct)
			products.DELETE("/:id", requireAuth, requireAdmin, h.DeleteProduct)
		}

		// --- Orders & Payment (Login Required) ---
		orders := api.Group("/orders")
		orders.Use(requireAuth)
		{
			orders.POST("", h.CreateOrder)
			orders.GET("/myorders", h.GetMyOrders)
			orders.GET("/:id", h.GetOrderDetails)

			orders.POST("/paystack/initialize", h.InitializePayment)
			orders.POST("/paystack/verify", h.VerifyPayment)

			orders.GET("", requireAdmin, h.GetOrders)
			orders.PUT("/:id/status", requireAdmin, h.UpdateOrderStatus)
		}

		// --- Blog ---
		blog := api.Group("/blog")
		{
			blog.GET("", h.ListPosts)
			blog.GET("/:slug", h.GetPost)
			blog.POST("", requireAuth, requireAdmin, h.CreatePost)
			blog.PUT("/:id", requireAuth, requireAdmin, h.UpdatePost)
			blog.DELETE("/:id", requireAuth, requireAdmin, h.DeletePost)
		}

		// --- Contact & Newsletter (Public, throttled) ---
		api.POST("/contact", throttle, h.SubmitContact)
		api.GET("/contact", requireAuth, requireAdmin, h.ListContactMessages)

		newsletter := api.Group("/newsletter")
		{
			newsletter.POST("/subscribe", throttle, h.Subscribe)
			newsletter.POST("/unsubscribe", throttle, h.Unsubscribe)
			newsletter.GET("", requireAuth, requireAdmin, h.ListSubscribers)
		}

		// --- Wishlist (Login Required) ---
		wishlist := api.Group("/wishlist")
		wishlist.Use(requireAuth)
		{
			wishlist.GET("", h.GetWishlist)
			wishlist.POST("", h.AddToWishlist)
			wishlist.DELETE("/:productId", h.RemoveFromWishlist)
		}

		// --- Chat (Public, throttled) ---
		api.POST("/chat", throttle, h.Chat)
		api.GET("/chat/:sessionId", h.GetChatHistory)

		// --- Admin-Only Routes ---
		admin := api.Group("/admin")
		admin.Use(middleware.TokenFromQuery(), requireAuth, requireAdmin)
		{
			admin.GET("/stats", h.GetAdminStats)
			if opts.LiveFeed != nil {
				admin.GET("/live", gin.WrapH(opts.LiveFeed))
			}
		}

		api.POST("/upload", requireAuth, requireAdmin, h.UploadFile)
	}

	return router
}
