package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

func listBoards(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := boards.ListForMember(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

func createBoard(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createBoardRequest
		if err := decodeRequest(c, &req); err != nil {
			return writeError(c, logger, err)
		}
		creds, err := boards.Create(c.Request().Context(), userIDFrom(c), req.Name)
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, credentialsResponse{ID: creds.ID, Password: creds.Password})
	}
}

func getBoard(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := boards.Get(c.Request().Context(), c.Param("boardId"), userIDFrom(c))
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

func updateBoard(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateBoardRequest
		if err := decodeRequest(c, &req); err != nil {
			return writeError(c, logger, err)
		}
		if err := boards.Update(c.Request().Context(), c.Param("boardId"), userIDFrom(c), req.update()); err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Board updated"})
	}
}

func deleteBoard(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := boards.Delete(c.Request().Context(), c.Param("boardId"), userIDFrom(c)); err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Board deleted"})
	}
}

func rotatePassword(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		creds, err := boards.RotatePassword(c.Request().Context(), c.Param("boardId"), userIDFrom(c))
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusOK, credentialsResponse{ID: creds.ID, Password: creds.Password})
	}
}

func joinBoard(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req joinBoardRequest
		if err := decodeRequest(c, &req); err != nil {
			return writeError(c, logger, err)
		}
		b, err := boards.Join(c.Request().Context(), req.BoardID, userIDFrom(c), req.Password)
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusOK, b)
	}
}
