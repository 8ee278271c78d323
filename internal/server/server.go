package server

import (
	"log"
	"strings"

	"storesight-backend/internal/auth"
	"storesight-backend/internal/config"
	"storesight-backend/internal/inventory"
	"storesight-backend/internal/prediction"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// New assembles the full application: middleware, auth gate and route table.
func New(cfg *config.Config, db *gorm.DB) *fiber.App {
	users := auth.NewUserStore(db)
	products := inventory.NewProductStore(db)
	predictor := prediction.NewClient(cfg.PredictionURL)

	app := fiber.New(fiber.Config{
		BodyLimit: inventory.MaxCSVUploadSize + 1024*1024, // headroom for multipart framing
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"message": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal server error",
			})
		},
	})

	app.Use(logger.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// Public auth
	app.Post("/login", auth.LoginHandler(cfg, users))
	app.Post("/register", auth.RegisterHandler(users))

	// Protected
	protected := app.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/users", auth.ListUsersHandler(users))

	protected.Get("/product", inventory.ListProductsHandler(products))
	protected.Post("/product/add", inventory.AddProductHandler(products))
	protected.Post("/product/addBulk", inventory.AddBulkHandler(products))
	protected.Post("/product/update", inventory.UpdateProductHandler(products))
	protected.Delete("/product/delete", inventory.DeleteProductHandler(products))

	protected.Post("/product/predict", prediction.PredictHandler(predictor))
	protected.Post("/product/uploadData", prediction.UploadDataHandler(predictor))

	return app
}
