package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/coralises/guildflow/internal/api/dto"
	"github.com/coralises/guildflow/internal/auth"
	"github.com/coralises/guildflow/internal/config"
	"github.com/coralises/guildflow/internal/observability"
	"github.com/coralises/guildflow/internal/service"
	"github.com/coralises/guildflow/internal/worker"
	"github.com/coralises/guildflow/pkg/util"
)

// AdminHandler exposes the operator surface: login, panel publishing, manual
// prune and metrics.
type AdminHandler struct {
	cfg          config.AuthConfig
	tokens       *auth.TokenManager
	tickets      *service.TicketService
	applications *service.ApplicationService
	pruner       *worker.PruneWorker
	metrics      *observability.Metrics
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(cfg config.AuthConfig, tokens *auth.TokenManager, tickets *service.TicketService, applications *service.ApplicationService, pruner *worker.PruneWorker, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{
		cfg:          cfg,
		tokens:       tokens,
		tickets:      tickets,
		applications: applications,
		pruner:       pruner,
		metrics:      metrics,
	}
}

// Login handles POST /auth/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username and password required")
	}

	if req.Username != h.cfg.AdminUser || h.cfg.AdminPasswordHash == "" {
		return util.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(h.cfg.AdminPasswordHash, req.Password); err != nil {
		return util.NewUnauthorized("invalid credentials")
	}

	token, exp, err := h.tokens.GenerateToken(req.Username)
	if err != nil {
		return util.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}

// PostTicketPanel handles POST /admin/panels/tickets.
func (h *AdminHandler) PostTicketPanel(c *fiber.Ctx) error {
	if err := h.tickets.PostPanel(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "posted"})
}

// PostApplicationPanel handles POST /admin/panels/applications.
func (h *AdminHandler) PostApplicationPanel(c *fiber.Ctx) error {
	if err := h.applications.PostPanel(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "posted"})
}

// Prune handles POST /admin/prune.
func (h *AdminHandler) Prune(c *fiber.Ctx) error {
	pruned, err := h.pruner.RunOnce(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PruneResponse{Pruned: pruned}})
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	workflows, requests, errors := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"workflows": workflows,
			"requests":  requests,
			"errors":    errors,
		},
	})
}
