// handlers/exercise.go
package handlers

import (
	"errors"
	"log"

	"fitness-battle-system/middleware"
	"fitness-battle-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupExerciseRoutes(app *fiber.App, db *gorm.DB) {
	app.Get("/exercises", func(c *fiber.Ctx) error {
		query := db.Model(&models.Exercise{})
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category)
		}

		var exercises []models.Exercise
		if err := query.Order("name ASC").Find(&exercises).Error; err != nil {
			log.Printf("[Exercises] DB error listing exercises: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		return c.JSON(exercises)
	})

	app.Get("/exercises/:id", func(c *fiber.Ctx) error {
		var exercise models.Exercise
		if err := db.First(&exercise, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "exercise not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		return c.JSON(exercise)
	})

	secured := app.Group("/exercises", middleware.UserContextMiddleware())

	secured.Post("", func(c *fiber.Ctx) error {
		var exercise models.Exercise
		if err := c.BodyParser(&exercise); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if exercise.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}

		var existing models.Exercise
		if err := db.First(&existing, "name = ?", exercise.Name).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "exercise with this name already exists"})
		}

		exercise.ID = ""
		if err := db.Create(&exercise).Error; err != nil {
			log.Printf("[Exercises] DB error creating exercise: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create exercise"})
		}
		return c.Status(fiber.StatusCreated).JSON(exercise)
	})
}
