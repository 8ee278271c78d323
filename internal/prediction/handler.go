package prediction

import (
	"encoding/json"
	"log"

	"storesight-backend/internal/inventory"

	"github.com/gofiber/fiber/v2"
)

// POST /product/predict
// The body is the batch itself: a JSON array of feature rows.
func PredictHandler(client *Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []ProductFeatures
		if err := json.Unmarshal(c.Body(), &products); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		values, err := client.PredictSales(c.Context(), products)
		if err != nil {
			log.Println("prediction request failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		return c.JSON(fiber.Map{
			"success":         true,
			"predicted_sales": values,
		})
	}
}

// POST /product/uploadData
// Multipart CSV with historical sales; the rows go to the scoring service
// for retraining, not to the product store.
func UploadDataHandler(client *Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := inventory.ReadCSVUpload(c)
		if err != nil {
			return err
		}

		rows, err := inventory.ParseCSVRecords(data)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not parse CSV file")
		}

		result, err := client.UploadTrainingData(c.Context(), rows)
		if err != nil {
			log.Println("training data upload failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		return c.JSON(fiber.Map{
			"message": "CSV file processed successfully",
			"success": result.Success,
			"data":    result,
		})
	}
}
