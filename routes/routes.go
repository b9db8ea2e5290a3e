package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/na4oman/samsung-shop/controllers"
	"github.com/na4oman/samsung-shop/middleware"
)

// Options configures the protected route groups.
type Options struct {
	JWTSecret        string
	ImportRatePerMin int
	ImportRateBurst  int
}

// RegisterProductRoutes sets up catalog and import routes.
func RegisterProductRoutes(r *gin.Engine, pc *controllers.ProductController, ic *controllers.ImportController, opts Options) {
	products := r.Group("/products")
	products.GET("", pc.GetProducts)
	products.GET("/categories", pc.GetCategories)
	products.GET("/:id", pc.GetProduct)

	admin := products.Group("")
	admin.Use(middleware.AuthMiddleware(opts.JWTSecret), middleware.AdminOnly())
	admin.POST("", pc.CreateProduct)
	admin.PUT("/:id", pc.UpdateProduct)
	admin.DELETE("/:id", pc.DeleteProduct)
	admin.POST("/:id/images/presign", pc.PresignImageUpload)

	imports := admin.Group("/import")
	imports.GET("/template", ic.DownloadTemplate)
	imports.GET("/jobs/:id", ic.GetImportJob)
	imports.GET("/runs", ic.ListImportRuns)

	limited := imports.Group("")
	if opts.ImportRatePerMin > 0 {
		limited.Use(middleware.RateLimit(opts.ImportRatePerMin, max(opts.ImportRateBurst, 1)))
	}
	limited.POST("", ic.ImportProducts)
	limited.POST("/file", ic.ImportFile)
}
