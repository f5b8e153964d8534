package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

func createTask(tasks Tasks, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTaskRequest
		if err := decodeRequest(c, &req); err != nil {
			return writeError(c, logger, err)
		}
		t, err := tasks.Add(c.Request().Context(), req.BoardID, userIDFrom(c), req.newTask())
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, idResponse{ID: t.ID})
	}
}

func updateTask(tasks Tasks, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateTaskRequest
		if err := decodeRequest(c, &req); err != nil {
			return writeError(c, logger, err)
		}
		ctx := c.Request().Context()
		upd := req.update()
		taskID := c.Param("taskId")

		var err error
		if upd.Status != nil && upd.Title == nil && upd.Priority == nil && upd.Description == nil && !upd.DeadlineSet {
			err = tasks.TransitionStatus(ctx, req.BoardID, userIDFrom(c), taskID, *upd.Status)
		} else {
			err = tasks.Patch(ctx, req.BoardID, userIDFrom(c), taskID, upd)
		}
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Task updated"})
	}
}

func createComment(tasks Tasks, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createCommentRequest
		if err := decodeRequest(c, &req); err != nil {
			return writeError(c, logger, err)
		}
		cm, err := tasks.AddComment(c.Request().Context(), req.BoardID, userIDFrom(c), req.TaskID, req.Content)
		if err != nil {
			return writeError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, idResponse{ID: cm.ID})
	}
}
