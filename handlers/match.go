// handlers/match.go
package handlers

import (
	"errors"
	"log"

	"fitness-battle-system/middleware"
	"fitness-battle-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupMatchRoutes(app *fiber.App, db *gorm.DB) {
	// Public reads — match history is visible to anyone behind the gateway
	app.Get("/matches", func(c *fiber.Ctx) error {
		query := db.Model(&models.GameSession{})

		if playerID := c.Query("player_id"); playerID != "" {
			query = query.Where("player_a_id = ? OR player_b_id = ?", playerID, playerID)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var matches []models.GameSession
		if err := query.Order("created_at DESC").Find(&matches).Error; err != nil {
			log.Printf("[Matches] DB error listing matches: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		return c.JSON(matches)
	})

	app.Get("/matches/:id", func(c *fiber.Ctx) error {
		var match models.GameSession
		if err := db.First(&match, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		return c.JSON(match)
	})

	secured := app.Group("/matches", middleware.UserContextMiddleware())

	secured.Post("", func(c *fiber.Ctx) error {
		var req struct {
			PlayerAID  string  `json:"player_a_id"`
			PlayerBID  string  `json:"player_b_id"`
			ExerciseID *string `json:"exercise_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.PlayerAID == "" || req.PlayerBID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "player_a_id and player_b_id are required"})
		}

		for _, playerID := range []string{req.PlayerAID, req.PlayerBID} {
			var user models.User
			if err := db.First(&user, "id = ?", playerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "player not found", "player_id": playerID})
				}
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
			}
		}

		if req.ExerciseID != nil {
			var exercise models.Exercise
			if err := db.First(&exercise, "id = ?", *req.ExerciseID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "exercise not found", "exercise_id": *req.ExerciseID})
				}
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
			}
		}

		match := models.GameSession{
			PlayerAID:         req.PlayerAID,
			PlayerBID:         req.PlayerBID,
			Status:            models.GameStatusWaiting,
			CurrentExerciseID: req.ExerciseID,
		}
		if err := db.Create(&match).Error; err != nil {
			log.Printf("[Matches] DB error creating match: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create match"})
		}

		return c.Status(fiber.StatusCreated).JSON(match)
	})
}
