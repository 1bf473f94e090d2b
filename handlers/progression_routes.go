package handlers

import (
	"strconv"

	"pilot-progress-system/logger"
	"pilot-progress-system/middleware"
	"pilot-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

// Services bundles what the routes need.
type Services struct {
	Progression *services.ProgressionService
	Catalog     *services.CatalogService
	Events      *services.ProgressEventService
	Artifacts   *services.ArtifactService
	SyncStore   *services.RewardSyncStore
	Identity    services.TokenValidator
	Log         *logger.Logger
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func SetupProgressionRoutes(app *fiber.App, svc Services) {
	progress := svc.Progression

	// SSE cannot carry gateway-injected headers; it authenticates by query token.
	app.Get("/user/events/stream", middleware.SSEAuth(svc.Identity, svc.Log), svc.Events.StreamProgressEventsSSE)

	// The gateway forwards /api/v1/progress/s/... here with X-User-ID set.
	secured := app.Group("/", middleware.UserContext(svc.Log))

	secured.Get("/user/progress", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		overview, err := progress.Overview(c.UserContext(), login)
		if err != nil {
			return fail(c, "failed to load progress", err)
		}
		return c.JSON(overview)
	})

	secured.Get("/missions", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		cards, err := progress.VisibleMissions(c.UserContext(), login)
		if err != nil {
			return fail(c, "failed to list missions", err)
		}
		return c.JSON(cards)
	})

	secured.Get("/missions/:id", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		id, err := paramID(c, "id")
		if err != nil {
			return badRequest(c, "invalid mission id", nil)
		}
		card, err := progress.MissionCard(c.UserContext(), login, id)
		if err != nil {
			return fail(c, "failed to load mission", err)
		}
		return c.JSON(card)
	})

	secured.Post("/missions/:id/tasks/:taskId", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		missionID, err := paramID(c, "id")
		if err != nil {
			return badRequest(c, "invalid mission id", nil)
		}
		taskID, err := paramID(c, "taskId")
		if err != nil {
			return badRequest(c, "invalid task id", nil)
		}
		var req struct {
			Done *bool `json:"done"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.Done == nil {
			return badRequest(c, "done is required", nil)
		}

		u, err := progress.ToggleTask(c.UserContext(), login, missionID, taskID, *req.Done)
		if err != nil {
			return fail(c, "failed to update task", err)
		}
		um, _ := u.Mission(missionID)
		return c.JSON(um)
	})

	secured.Post("/missions/:id/complete", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		id, err := paramID(c, "id")
		if err != nil {
			return badRequest(c, "invalid mission id", nil)
		}
		out, err := progress.CompleteMission(c.UserContext(), login, id)
		if err != nil {
			return fail(c, "failed to complete mission", err)
		}
		return c.JSON(out)
	})

	secured.Post("/missions/:id/uncomplete", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		id, err := paramID(c, "id")
		if err != nil {
			return badRequest(c, "invalid mission id", nil)
		}
		u, err := progress.UncompleteMission(c.UserContext(), login, id)
		if err != nil {
			return fail(c, "failed to reopen mission", err)
		}
		return c.JSON(u)
	})

	secured.Get("/chains", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		views, err := progress.VisibleChains(c.UserContext(), login)
		if err != nil {
			return fail(c, "failed to list chains", err)
		}
		return c.JSON(views)
	})

	secured.Post("/chains/:id/claim", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		id, err := paramID(c, "id")
		if err != nil {
			return badRequest(c, "invalid chain id", nil)
		}
		out, err := progress.ClaimChain(c.UserContext(), login, id)
		if err != nil {
			return fail(c, "failed to claim chain reward", err)
		}
		return c.JSON(out)
	})

	secured.Get("/user/events", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		events, err := svc.Events.List(c.UserContext(), login, c.QueryBool("unviewed", false), limit)
		if err != nil {
			return fail(c, "failed to list events", err)
		}
		return c.JSON(events)
	})

	secured.Post("/user/events/viewed", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		n, err := svc.Events.MarkAllViewed(c.UserContext(), login)
		if err != nil {
			return fail(c, "failed to mark events viewed", err)
		}
		return c.JSON(fiber.Map{"updated": n})
	})

	secured.Post("/user/events/:id/viewed", func(c *fiber.Ctx) error {
		login := c.Locals(middleware.LocalUserID).(string)
		if err := svc.Events.MarkViewed(c.UserContext(), login, c.Params("id")); err != nil {
			return fail(c, "failed to mark event viewed", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
