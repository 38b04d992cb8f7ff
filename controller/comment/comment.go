package comment

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func CommentController(router *gin.Engine, planner *services.Planner) {
	task := router.Group("/task/:task_id/comments", middleware.AccessTokenMiddleware())
	{
		task.GET("", func(c *gin.Context) {
			ListComments(c, planner)
		})
		task.POST("", func(c *gin.Context) {
			PostComment(c, planner)
		})
	}
	routes := router.Group("/comment", middleware.AccessTokenMiddleware())
	{
		routes.PUT("/:comment_id", func(c *gin.Context) {
			EditComment(c, planner)
		})
		routes.DELETE("/:comment_id", func(c *gin.Context) {
			DeleteComment(c, planner)
		})
	}
}

func ListComments(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	comments, err := planner.ListComments(c.Request.Context(), taskID, controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, comments)
}

func PostComment(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !controller.Bind(c, &req) {
		return
	}
	comment, err := planner.PostComment(c.Request.Context(), taskID, controller.Requester(c), req.Content, req.ParentID)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusCreated, comment)
}

func EditComment(c *gin.Context, planner *services.Planner) {
	commentID, ok := controller.ParamID(c, "comment_id")
	if !ok {
		return
	}
	var req dto.EditCommentRequest
	if !controller.Bind(c, &req) {
		return
	}
	comment, err := planner.EditComment(c.Request.Context(), commentID, controller.Requester(c), req.Content)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, comment)
}

func DeleteComment(c *gin.Context, planner *services.Planner) {
	commentID, ok := controller.ParamID(c, "comment_id")
	if !ok {
		return
	}
	if err := planner.DeleteComment(c.Request.Context(), commentID, controller.Requester(c)); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "Comment deleted"})
}
