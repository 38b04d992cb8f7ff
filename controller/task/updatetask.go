package task

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

// UpdateTask edits task details. Status changes go through the assignee
// routes, where only the Owner may make them.
func UpdateTask(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if !controller.Bind(c, &req) {
		return
	}
	task, err := planner.UpdateTask(c.Request.Context(), taskID, controller.Requester(c), services.TaskUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
		TagIDs:       req.TagIDs,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, task)
}
