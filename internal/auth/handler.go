package auth

import (
	"errors"
	"log"
	"strings"

	"storesight-backend/internal/config"
	"storesight-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Image    string `json:"image"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PublicUser is the subset of an account that may leave the server.
type PublicUser struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image"`
}

func publicUser(u *models.User) PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email, Image: u.Image}
}

// POST /register
func RegisterHandler(users *UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Username = strings.TrimSpace(body.Username)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		_, err := users.Register(body.Username, body.Password, body.Email, body.Image)
		if err != nil {
			switch {
			case errors.Is(err, ErrDuplicateUser):
				return fiber.NewError(fiber.StatusBadRequest, "Username already exists")
			case errors.Is(err, ErrMissingFields):
				return fiber.NewError(fiber.StatusBadRequest, "Please fill all fields")
			}
			log.Println("register failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "User registered successfully",
		})
	}
}

// POST /login
func LoginHandler(cfg *config.Config, users *UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		user, err := users.Authenticate(strings.TrimSpace(body.Username), body.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				return fiber.NewError(fiber.StatusUnauthorized, "Authentication failed")
			}
			log.Println("login failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		token, err := GenerateToken(cfg.JWTSecret, user)
		if err != nil {
			log.Println("token generation failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		return c.JSON(fiber.Map{
			"message": "Login successful",
			"token":   token,
			"user":    publicUser(user),
		})
	}
}

// GET /users
func ListUsersHandler(users *UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all, err := users.List()
		if err != nil {
			log.Println("listing users failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}

		res := make([]PublicUser, 0, len(all))
		for i := range all {
			res = append(res, publicUser(&all[i]))
		}
		return c.JSON(res)
	}
}
