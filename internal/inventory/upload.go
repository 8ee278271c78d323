package inventory

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// MaxCSVUploadSize caps uploaded CSV files at 5MB.
const MaxCSVUploadSize = 5 * 1024 * 1024

// ReadCSVUpload pulls the "file" part out of a multipart request and returns
// its contents. Only files with a .csv extension and a csv content type are
// accepted. Errors are already *fiber.Error values suitable to return as-is.
func ReadCSVUpload(c *fiber.Ctx) ([]byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
	}

	if fileHeader.Size > MaxCSVUploadSize {
		return nil, fiber.NewError(fiber.StatusBadRequest, "File exceeds the 5MB limit")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") ||
		!strings.Contains(strings.ToLower(contentType), "csv") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Error: File upload only supports CSV file types.")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not open uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxCSVUploadSize+1))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not read uploaded file")
	}
	if len(data) > MaxCSVUploadSize {
		return nil, fiber.NewError(fiber.StatusBadRequest, "File exceeds the 5MB limit")
	}
	return data, nil
}
