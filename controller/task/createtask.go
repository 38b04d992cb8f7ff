package task

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

// CreateTask makes the caller the task Owner. Extra assignees join as
// Contributors.
func CreateTask(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if !controller.Bind(c, &req) {
		return
	}
	task, err := planner.CreateTask(c.Request.Context(), controller.Requester(c), services.TaskInput{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssigneeIDs: req.AssigneeIDs,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusCreated, task)
}
