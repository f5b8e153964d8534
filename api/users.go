package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

func signup(users Users, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req signupRequest
		if err := decodeRequest(c, &req); err != nil {
			return writeError(c, logger, err)
		}
		u, err := users.Signup(c.Request().Context(), req.Name, req.Email, req.Password)
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, signupResponse{UserID: u.ID})
	}
}

func login(users Users, tokens TokenIssuer, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeRequest(c, &req); err != nil {
			return writeError(c, logger, err)
		}
		u, err := users.Authenticate(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return writeError(c, logger, err)
		}
		token, err := tokens.Issue(u.ID)
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusOK, loginResponse{Token: token, User: newUserResponse(u)})
	}
}

func getProfile(users Users, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := users.Profile(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusOK, newUserResponse(u))
	}
}
