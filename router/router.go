package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/propflow/lead-intake/controllers"
	"github.com/propflow/lead-intake/middlewares"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	authCtrl := controllers.NewAuthController(db)
	buyerCtrl := controllers.NewBuyerController(db)
	ioCtrl := controllers.NewImportExportController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	public := r.Group("/auth")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/magic-link", authCtrl.RequestMagicLink)
		public.POST("/verify", authCtrl.VerifyMagicLink)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", authCtrl.GetProfile)

	auth.GET("/buyers", buyerCtrl.ListBuyers)
	auth.GET("/buyers/:buyer_id", buyerCtrl.GetBuyer)
	// gin cannot mix a static segment with :buyer_id, so export gets its
	// own prefix.
	auth.GET("/export", ioCtrl.ExportBuyers)

	// Writes go through the per-identifier limiter.
	writeLimiter := middlewares.NewRateLimiter(30, 60)
	writes := auth.Group("/")
	writes.Use(writeLimiter.RateLimit())
	{
		writes.POST("/buyers", buyerCtrl.CreateBuyer)
		writes.PUT("/buyers/:buyer_id", buyerCtrl.UpdateBuyer)
		writes.DELETE("/buyers/:buyer_id", buyerCtrl.DeleteBuyer)
		writes.POST("/buyers/import", ioCtrl.ImportBuyers)
	}

	return r
}
