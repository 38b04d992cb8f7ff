package task

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func TaskController(router *gin.Engine, planner *services.Planner) {
	project := router.Group("/project/:project_id/tasks", middleware.AccessTokenMiddleware())
	{
		project.GET("", func(c *gin.Context) {
			ListTasks(c, planner)
		})
		project.POST("", func(c *gin.Context) {
			CreateTask(c, planner)
		})
	}
	routes := router.Group("/task", middleware.AccessTokenMiddleware())
	{
		routes.GET("/:task_id", func(c *gin.Context) {
			GetTask(c, planner)
		})
		routes.PUT("/:task_id", func(c *gin.Context) {
			UpdateTask(c, planner)
		})
		routes.DELETE("/:task_id", func(c *gin.Context) {
			DeleteTask(c, planner)
		})
	}
}

// ListTasks takes ?status= and ?filter=All|Mine.
func ListTasks(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	var query dto.TaskQuery
	if !controller.BindQuery(c, &query) {
		return
	}
	tasks, err := planner.ListTasks(c.Request.Context(), projectID, controller.Requester(c), query.Status, query.Filter)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, tasks)
}
