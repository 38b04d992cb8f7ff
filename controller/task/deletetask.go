package task

import (
	"net/http"

	"dunzo/controller"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func DeleteTask(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	if err := planner.DeleteTask(c.Request.Context(), taskID, controller.Requester(c)); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "Task deleted"})
}
