package inventory

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

type AddProductRequest struct {
	Store int `json:"store"`
	Dept  int `json:"dept"`
	Size  int `json:"size"`
	Type  int `json:"type"`
}

type UpdateProductRequest struct {
	ID string `json:"_id"`
	UpdateFields
}

type DeleteProductRequest struct {
	ID string `json:"_id"`
}

// GET /product
func ListProductsHandler(store *ProductStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := store.List()
		if err != nil {
			log.Println("listing products failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}
		return c.JSON(products)
	}
}

// POST /product/add
func AddProductHandler(store *ProductStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AddProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		product, err := store.Create(body.Store, body.Dept, body.Size, body.Type)
		if err != nil {
			if errors.Is(err, ErrValidation) {
				return fiber.NewError(fiber.StatusBadRequest, "Please fill all fields")
			}
			log.Println("creating product failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Product added successfully",
			"product": product,
		})
	}
}

// POST /product/update
func UpdateProductHandler(store *ProductStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if err := store.Update(body.ID, body.UpdateFields); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Product not found")
			}
			log.Println("updating product failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		return c.JSON(fiber.Map{
			"message": "Product updated successfully",
		})
	}
}

// DELETE /product/delete
func DeleteProductHandler(store *ProductStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DeleteProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		deleted, err := store.Delete(body.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Product not found")
			}
			log.Println("deleting product failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		return c.JSON(fiber.Map{
			"message": "Product deleted successfully",
			"deleted": deleted,
		})
	}
}

// POST /product/addBulk
// Multipart upload, file field "file". The whole batch is rejected on the
// first malformed row.
func AddBulkHandler(store *ProductStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := ReadCSVUpload(c)
		if err != nil {
			return err
		}

		rows, err := ParseProductCSV(data)
		if err != nil {
			var malformed *MalformedRowError
			if errors.As(err, &malformed) {
				return fiber.NewError(fiber.StatusBadRequest, malformed.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, "Could not parse CSV file")
		}

		products, err := store.BulkInsert(rows)
		if err != nil {
			if errors.Is(err, ErrValidation) {
				return fiber.NewError(fiber.StatusBadRequest, "Please fill all fields")
			}
			log.Println("bulk insert failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":  "Products added successfully",
			"success":  true,
			"products": products,
		})
	}
}
