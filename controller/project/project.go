package project

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func ProjectController(router *gin.Engine, planner *services.Planner) {
	routes := router.Group("/project", middleware.AccessTokenMiddleware())
	{
		routes.POST("", func(c *gin.Context) {
			CreateProject(c, planner)
		})
		routes.GET("", func(c *gin.Context) {
			ListProjects(c, planner)
		})
		routes.GET("/:project_id", func(c *gin.Context) {
			GetProject(c, planner)
		})
		routes.PUT("/:project_id", func(c *gin.Context) {
			UpdateProject(c, planner)
		})
		routes.DELETE("/:project_id", func(c *gin.Context) {
			DeleteProject(c, planner)
		})
		routes.GET("/:project_id/timeline", func(c *gin.Context) {
			Timeline(c, planner)
		})
	}
}

func CreateProject(c *gin.Context, planner *services.Planner) {
	var req dto.CreateProjectRequest
	if !controller.Bind(c, &req) {
		return
	}
	project, err := planner.CreateProject(c.Request.Context(), controller.Requester(c), services.ProjectInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusCreated, project)
}

// ListProjects takes ?filter=Active|Archived|Complete|All|Leader.
func ListProjects(c *gin.Context, planner *services.Planner) {
	projects, err := planner.ListProjects(c.Request.Context(), controller.Requester(c), c.Query("filter"))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, projects)
}

func GetProject(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	detail, err := planner.GetProject(c.Request.Context(), projectID, controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, detail)
}

func UpdateProject(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	var req dto.UpdateProjectRequest
	if !controller.Bind(c, &req) {
		return
	}
	project, err := planner.UpdateProject(c.Request.Context(), projectID, controller.Requester(c), services.ProjectUpdate{
		Title:          req.Title,
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         req.Status,
		ClearStartDate: req.ClearStartDate,
		ClearEndDate:   req.ClearEndDate,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, project)
}

func DeleteProject(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	if err := planner.DeleteProject(c.Request.Context(), projectID, controller.Requester(c)); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "Project deleted"})
}
