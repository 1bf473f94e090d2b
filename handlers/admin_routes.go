package handlers

import (
	"errors"
	"strconv"
	"strings"

	"pilot-progress-system/middleware"
	"pilot-progress-system/progression"
	"pilot-progress-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// SetupAdminRoutes registers the moderation and catalog endpoints.
func SetupAdminRoutes(app *fiber.App, svc Services) {
	progress := svc.Progression
	admin := app.Group("/s/admin", middleware.UserContext(svc.Log), middleware.RequireRole("admin"))

	admin.Post("/missions/:id/approve", func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return badRequest(c, "invalid mission id", nil)
		}
		var req struct {
			Login string `json:"login"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if strings.TrimSpace(req.Login) == "" {
			return badRequest(c, "login is required", nil)
		}
		u, err := progress.ApproveMission(c.UserContext(), req.Login, id)
		if err != nil {
			return fail(c, "mission approval failed", err)
		}
		um, _ := u.Mission(id)
		svc.Log.Info("✅ mission approved", "login", req.Login, "mission_id", id, "by", c.Locals(middleware.LocalUserID))
		return c.JSON(um)
	})

	admin.Post("/competencies/grant", func(c *fiber.Ctx) error {
		var req struct {
			Login        string `json:"login"`
			CompetencyID uint   `json:"competency_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if strings.TrimSpace(req.Login) == "" || req.CompetencyID == 0 {
			return badRequest(c, "login and competency_id are required", nil)
		}
		u, err := progress.GrantCompetency(c.UserContext(), req.Login, req.CompetencyID)
		if err != nil {
			return fail(c, "competency grant failed", err)
		}
		return c.JSON(u.Competencies)
	})

	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			Login  string `json:"login"`
			XP     int64  `json:"xp"`
			Mana   int64  `json:"mana"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if strings.TrimSpace(req.Login) == "" {
			return badRequest(c, "login is required", nil)
		}
		if req.XP < 0 || req.Mana < 0 || req.XP+req.Mana == 0 {
			return badRequest(c, "xp or mana must be positive", nil)
		}
		if len(req.Reason) > 255 {
			return badRequest(c, "reason is too long", nil)
		}

		out, err := progress.GrantXP(c.UserContext(), req.Login, req.XP, req.Mana, req.Reason)
		if err != nil {
			return fail(c, "XP award failed", err)
		}
		return c.JSON(out)
	})

	admin.Post("/artifacts", func(c *fiber.Ctx) error {
		in := services.ArtifactInput{
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
			Rarity:      progression.Rarity(strings.ToLower(c.FormValue("rarity"))),
		}
		image, err := c.FormFile("image")
		switch {
		case errors.Is(err, fasthttp.ErrMissingFile):
			image = nil // image is optional
		case err != nil:
			return badRequest(c, "invalid multipart form", err)
		}

		artifact, err := svc.Artifacts.CreateArtifact(c.UserContext(), in, image)
		if err != nil {
			return fail(c, "artifact creation failed", err)
		}
		return c.Status(fiber.StatusCreated).JSON(artifact)
	})

	admin.Post("/catalog/reload", func(c *fiber.Ctx) error {
		if err := svc.Catalog.Refresh(c.UserContext()); err != nil {
			return fail(c, "catalog reload failed", err)
		}
		cat, err := svc.Catalog.Catalog(c.UserContext())
		if err != nil {
			return fail(c, "catalog reload failed", err)
		}
		return c.JSON(fiber.Map{
			"missions":     len(cat.Missions),
			"ranks":        len(cat.Ranks),
			"chains":       len(cat.Chains),
			"artifacts":    len(cat.Artifacts),
			"competencies": len(cat.Competencies),
		})
	})

	admin.Get("/pilots", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		pilots, err := progress.SearchPilots(c.UserContext(), c.Query("q"), limit)
		if err != nil {
			return fail(c, "search failed", err)
		}
		return c.JSON(pilots)
	})

	admin.Get("/sync/status", func(c *fiber.Ctx) error {
		counts, err := svc.SyncStore.Counts(c.UserContext())
		if err != nil {
			return fail(c, "failed to read sync outbox", err)
		}
		return c.JSON(counts)
	})
}
