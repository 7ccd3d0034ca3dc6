package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"codelearn/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_ContestLifecycle(t *testing.T) {
	h := newAPI(t, "")
	ada := h.register("ada", "MIT", "CSE")
	eve := h.register("eve", "MIT", "CSE")

	var group models.Group
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/groups", ada.Token, fiber.Map{
		"name": "Algo Club", "description": "weekly practice",
	}, &group))
	assert.Len(t, group.InviteCode, 12)

	start := h.clock.t.Add(time.Hour)
	var contest models.Contest
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/contests", ada.Token, fiber.Map{
		"title":       "Sprint",
		"description": "one hour",
		"start_time":  start,
		"duration":    60,
		"problems": []fiber.Map{
			{"title": "Two Sum", "description": "pairs", "difficulty": "Easy", "points": 100},
		},
		"group_ids": []uint{group.ID},
	}, &contest))
	assert.Equal(t, models.ContestUpcoming, contest.Status)
	assert.True(t, contest.EndTime.Equal(start.Add(time.Hour)))

	submit := func(token string) (int, models.ErrorResponse) {
		var body models.ErrorResponse
		status := h.call(http.MethodPost, fmt.Sprintf("/api/contests/%d/submit", contest.ID), token, fiber.Map{
			"problem_index": 0, "code": "print(1)", "language": "Python",
		}, &body)
		return status, body
	}

	status, body := submit(ada.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Contest is not currently active", body.Error)

	h.clock.t = start.Add(10 * time.Minute)
	status, _ = submit(ada.Token)
	assert.Equal(t, http.StatusOK, status)

	status, body = submit(eve.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You are not part of any participating group", body.Error)

	var standings []models.ContestGroup
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, fmt.Sprintf("/api/contests/%d/standings", contest.ID), "", nil, &standings))
	require.Len(t, standings, 1)
	assert.Equal(t, 100, standings[0].Score)
	assert.Equal(t, 100, h.score(ada.Token))

	h.clock.t = start.Add(70 * time.Minute)
	status, _ = submit(ada.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 100, h.score(ada.Token))

	var detail models.Contest
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, fmt.Sprintf("/api/contests/%d", contest.ID), "", nil, &detail))
	assert.Equal(t, models.ContestCompleted, detail.Status)
	assert.Len(t, detail.Submissions, 1)

	require.Equal(t, http.StatusOK, h.call(http.MethodPut, fmt.Sprintf("/api/contests/%d/status", contest.ID), ada.Token, nil, &detail))
	assert.Equal(t, models.ContestCompleted, detail.Status)

	assert.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, fmt.Sprintf("/api/contests/%d/submit", contest.ID), ada.Token, fiber.Map{
		"code": "x", "language": "Go",
	}, nil), "problem_index is required")

	assert.Equal(t, http.StatusUnauthorized, h.call(http.MethodDelete, fmt.Sprintf("/api/contests/%d", contest.ID), eve.Token, nil, nil))
	assert.Equal(t, http.StatusOK, h.call(http.MethodDelete, fmt.Sprintf("/api/contests/%d", contest.ID), ada.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet, fmt.Sprintf("/api/contests/%d", contest.ID), "", nil, nil))
}

func TestAPI_OrganizerContests(t *testing.T) {
	h := newAPI(t, "")
	ada := h.register("ada", "MIT", "CSE")
	bob := h.register("bob", "MIT", "CSE")

	var group models.Group
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/groups", ada.Token, fiber.Map{
		"name": "Algo Club", "description": "weekly practice",
	}, &group))
	for i, token := range []string{ada.Token, ada.Token, bob.Token} {
		require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/contests", token, fiber.Map{
			"title":       fmt.Sprintf("Round %d", i),
			"description": "thirty minutes",
			"start_time":  h.clock.t.Add(time.Duration(i+1) * time.Hour),
			"duration":    30,
			"problems":    []fiber.Map{{"title": "Two Sum", "description": "pairs"}},
			"group_ids":   []uint{group.ID},
		}, nil))
	}

	var organized []models.Contest
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, fmt.Sprintf("/api/contests/organizer/%d", ada.User.ID), "", nil, &organized))
	require.Len(t, organized, 2)
	assert.Equal(t, "Round 1", organized[0].Title, "latest start first")

	require.Equal(t, http.StatusOK, h.call(http.MethodGet, fmt.Sprintf("/api/contests/organizer/%d?limit=1&offset=1", ada.User.ID), "", nil, &organized))
	require.Len(t, organized, 1)
	assert.Equal(t, "Round 0", organized[0].Title)

	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet, "/api/contests/organizer/999", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, h.call(http.MethodGet, "/api/contests/organizer/abc", "", nil, nil))
}
