package tag

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func TagController(router *gin.Engine, planner *services.Planner) {
	project := router.Group("/project/:project_id/tags", middleware.AccessTokenMiddleware())
	{
		project.GET("", func(c *gin.Context) {
			ListTags(c, planner)
		})
		project.POST("", func(c *gin.Context) {
			CreateTag(c, planner)
		})
	}
	routes := router.Group("/tag", middleware.AccessTokenMiddleware())
	{
		routes.PUT("/:tag_id", func(c *gin.Context) {
			UpdateTag(c, planner)
		})
		routes.DELETE("/:tag_id", func(c *gin.Context) {
			DeleteTag(c, planner)
		})
	}
}

func ListTags(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	tags, err := planner.ListTags(c.Request.Context(), projectID, controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, tags)
}

func CreateTag(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	var req dto.TagRequest
	if !controller.Bind(c, &req) {
		return
	}
	tag, err := planner.CreateTag(c.Request.Context(), projectID, controller.Requester(c), req.Name, req.HexColor)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusCreated, tag)
}

func UpdateTag(c *gin.Context, planner *services.Planner) {
	tagID, ok := controller.ParamID(c, "tag_id")
	if !ok {
		return
	}
	var req dto.TagRequest
	if !controller.Bind(c, &req) {
		return
	}
	tag, err := planner.UpdateTag(c.Request.Context(), tagID, controller.Requester(c), req.Name, req.HexColor)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, tag)
}

func DeleteTag(c *gin.Context, planner *services.Planner) {
	tagID, ok := controller.ParamID(c, "tag_id")
	if !ok {
		return
	}
	if err := planner.DeleteTag(c.Request.Context(), tagID, controller.Requester(c)); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "Tag deleted"})
}
