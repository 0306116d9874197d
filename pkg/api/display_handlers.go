package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/services"
)

// DisplayHandler holds dependencies for the display toggle endpoints.
type DisplayHandler struct {
	displayService services.DisplayService
	logger         customlog.Logger
}

// NewDisplayHandler creates a new handler for display endpoints.
func NewDisplayHandler(displayService services.DisplayService, logger customlog.Logger) *DisplayHandler {
	if displayService == nil {
		panic("DisplayService cannot be nil in NewDisplayHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewDisplayHandler")
	}
	return &DisplayHandler{
		displayService: displayService,
		logger:         logger,
	}
}

// RegisterDisplayRoutes registers the display API endpoints with the Fiber app.
func RegisterDisplayRoutes(app *fiber.App, displayService services.DisplayService, logger customlog.Logger) {
	h := NewDisplayHandler(displayService, logger)

	apiGroup := app.Group("/api/display")
	apiGroup.Get("/", h.handleGetDisplay)
	apiGroup.Put("/", h.handleUpdateDisplay)

	logger.Infof("Registered display API endpoints under /api/display")
}

func isYAML(contentType string) bool {
	for _, t := range []string{"application/x-yaml", "application/yaml", "text/yaml"} {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// handleGetDisplay returns the toggles as JSON, or YAML with ?format=yaml.
func (h *DisplayHandler) handleGetDisplay(c *fiber.Ctx) error {
	if c.Query("format") != "yaml" {
		return c.JSON(h.displayService.DisplayFlags())
	}

	yamlData, err := h.displayService.GetCurrentStateYAML()
	if err != nil {
		h.logger.Errorf("Failed to render display state: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: fmt.Sprintf("Failed to render display state: %v", err),
		})
	}
	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

// handleUpdateDisplay applies a JSON or YAML body. Omitted fields keep their value.
func (h *DisplayHandler) handleUpdateDisplay(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: "Request body cannot be empty."})
	}

	if isYAML(c.Get(fiber.HeaderContentType)) {
		if err := h.displayService.UpdateFlagsYAML(body); err != nil {
			return h.updateFailed(c, err)
		}
		return c.JSON(h.displayService.DisplayFlags())
	}

	flags := h.displayService.DisplayFlags()
	if err := json.Unmarshal(body, &flags); err != nil {
		h.logger.Warnf("Rejected display update: %v", err)
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
	}
	if err := h.displayService.UpdateFlags(flags); err != nil {
		return h.updateFailed(c, err)
	}
	return c.JSON(h.displayService.DisplayFlags())
}

func (h *DisplayHandler) updateFailed(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrInvalidDisplayState) {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	h.logger.Errorf("Failed to update display toggles: %v", err)
	return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
		Error: fmt.Sprintf("Internal server error during display update: %v", err),
	})
}
