// handlers/matchmaking.go
package handlers

import (
	"errors"
	"log"

	"fitness-battle-system/middleware"
	"fitness-battle-system/models"
	"fitness-battle-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupMatchmakingRoutes(app *fiber.App, queue *services.MatchmakingQueue, db *gorm.DB) {
	secured := app.Group("/matchmaking", middleware.UserContextMiddleware())

	secured.Post("/queue", func(c *fiber.Ctx) error {
		var req struct {
			ExerciseID *string `json:"exercise_id"`
		}
		if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}

		userID := c.Locals("user_id").(string)

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
			}
			log.Printf("[Matchmaking] DB error fetching user %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}

		// Skill metadata rides along for forward compatibility; pairing
		// itself is strict FIFO and ignores it.
		var stats models.PlayerStats
		winRate := 0.0
		if err := db.First(&stats, "user_id = ?", userID).Error; err == nil {
			winRate = stats.WinRate
		}

		queue.AddPlayer(services.QueuedPlayer{
			PlayerID:         user.ID,
			Level:            user.Level,
			ExperiencePoints: user.ExperiencePoints,
			WinRate:          winRate,
			ExerciseID:       req.ExerciseID,
		})

		// An idempotent rejoin just reports where the player already stands.
		return c.JSON(queue.Status(user.ID))
	})

	secured.Delete("/queue", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		if !queue.RemovePlayer(userID) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not in queue"})
		}
		return c.JSON(fiber.Map{"status": "removed", "message": "Left matchmaking queue"})
	})

	secured.Get("/status", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		return c.JSON(queue.Status(userID))
	})
}
