package server

import "github.com/gofiber/fiber/v2"

type flagState struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// GetFeatureFlags handles GET /api/feature-flags: each flag's configured value
// and whether it is on for the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)
	raw := s.featureFlags.Raw()
	evaluated := s.featureFlags.Snapshot(userID)

	flags := make([]flagState, 0, len(raw))
	for _, name := range s.featureFlags.Names() {
		flags = append(flags, flagState{Name: name, Value: raw[name], Enabled: evaluated[name]})
	}

	return c.JSON(fiber.Map{
		"raw":       raw,
		"evaluated": evaluated,
		"flags":     flags,
	})
}
