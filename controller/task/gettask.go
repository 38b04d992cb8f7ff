package task

import (
	"net/http"

	"dunzo/controller"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func GetTask(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	task, err := planner.GetTask(c.Request.Context(), taskID, controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, task)
}
