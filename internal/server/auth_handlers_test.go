package server

import (
	"net/http"
	"testing"

	"codelearn/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestAPI_AuthFlow(t *testing.T) {
	h := newAPI(t, "")
	ada := h.register("ada", "MIT", "CSE")
	assert.Equal(t, "ada@uni.edu", ada.User.Email)
	assert.Zero(t, ada.User.CodingScore)

	var errBody models.ErrorResponse
	status := h.call(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name": "ada", "email": "ADA@uni.edu", "password": "secret1", "college": "MIT",
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", errBody.Error)

	assert.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name": "bob", "email": "bob@uni.edu", "password": "123", "college": "MIT",
	}, nil))

	var login authResponse
	assert.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "ada@uni.edu", "password": "secret1",
	}, &login))
	assert.Equal(t, ada.User.ID, login.User.ID)
	assert.Equal(t, http.StatusUnauthorized, h.call(http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "ada@uni.edu", "password": "nope-nope",
	}, nil))

	var profile models.User
	assert.Equal(t, http.StatusOK, h.call(http.MethodPut, "/api/auth/profile", login.Token, fiber.Map{
		"bio": "compilers", "skills": []string{"Go"},
	}, &profile))
	assert.Equal(t, "compilers", profile.Bio)
	assert.Equal(t, "MIT", profile.College)

	assert.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/auth/logout", login.Token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, "/api/auth/me", login.Token, nil, nil))
	assert.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/auth/me", ada.Token, nil, nil), "other sessions stay valid")
}
