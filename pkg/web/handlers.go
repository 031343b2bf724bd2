package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-nao/pkg/hub"
	"github.com/teslashibe/go-nao/pkg/router"
)

// RoutesResponse describes the active script.
type RoutesResponse struct {
	Script        string         `json:"script"`
	Description   string         `json:"description,omitempty"`
	AdvanceIntent string         `json:"advance_intent"`
	EndIntent     string         `json:"end_intent"`
	Opening       []string       `json:"opening"`
	Routes        []router.Entry `json:"routes"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleState returns the current session snapshot.
func (s *Server) handleState(c *fiber.Ctx) error {
	if s.recorder == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no session"})
	}
	return c.JSON(s.recorder.Snapshot())
}

func (s *Server) handleEvents(c *fiber.Ctx) error {
	if s.recorder == nil {
		return c.JSON([]any{})
	}
	return c.JSON(s.recorder.Snapshot().Recent)
}

func (s *Server) handleRoutes(c *fiber.Ctx) error {
	if s.script == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no script loaded"})
	}
	rt := s.script.Router()
	resp := RoutesResponse{
		Script:        s.script.Name,
		Description:   s.script.Description,
		AdvanceIntent: rt.AdvanceIntent(),
		EndIntent:     rt.EndIntent(),
		Opening:       make([]string, len(s.script.Opening)),
		Routes:        s.script.Table.Entries(),
	}
	for i, t := range s.script.Opening {
		resp.Opening[i] = t.String()
	}
	return c.JSON(resp)
}

// handleEventsWS streams telemetry events to a dashboard client.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	hub.NewClient(s.events, c).Run()
}
