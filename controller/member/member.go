package member

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func MemberController(router *gin.Engine, planner *services.Planner) {
	routes := router.Group("/project/:project_id/members", middleware.AccessTokenMiddleware())
	{
		routes.GET("", func(c *gin.Context) {
			ListMembers(c, planner)
		})
		routes.POST("", func(c *gin.Context) {
			AddMember(c, planner)
		})
		routes.PUT("/:user_id", func(c *gin.Context) {
			ChangeRole(c, planner)
		})
		routes.DELETE("/:user_id", func(c *gin.Context) {
			RemoveMember(c, planner)
		})
	}
}

func ListMembers(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	members, err := planner.ListMembers(c.Request.Context(), projectID, controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, members)
}

// AddMember invites a user by username or email.
func AddMember(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !controller.Bind(c, &req) {
		return
	}
	membership, err := planner.AddMember(c.Request.Context(), projectID, controller.Requester(c), req.Identifier, req.Role)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusCreated, membership)
}

func ChangeRole(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	target, ok := controller.ParamID(c, "user_id")
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if !controller.Bind(c, &req) {
		return
	}
	membership, err := planner.ChangeRole(c.Request.Context(), projectID, controller.Requester(c), target, req.Role)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, membership)
}

// RemoveMember also serves leaving a project when user_id is the caller.
func RemoveMember(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	target, ok := controller.ParamID(c, "user_id")
	if !ok {
		return
	}
	if err := planner.RemoveMember(c.Request.Context(), projectID, controller.Requester(c), target); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "Member removed"})
}
