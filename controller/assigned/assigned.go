package assigned

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func AssignedController(router *gin.Engine, planner *services.Planner) {
	routes := router.Group("/task/:task_id", middleware.AccessTokenMiddleware())
	{
		routes.GET("/assignees", func(c *gin.Context) {
			ListAssignees(c, planner)
		})
		routes.POST("/assignees", func(c *gin.Context) {
			AddAssignedTask(c, planner)
		})
		routes.PUT("/assignees", func(c *gin.Context) {
			ReassignTask(c, planner)
		})
		routes.PUT("/assignees/:user_id", func(c *gin.Context) {
			ChangeAssignedRole(c, planner)
		})
		routes.DELETE("/assignees/:user_id", func(c *gin.Context) {
			DelAssignedTask(c, planner)
		})
		routes.PUT("/status", func(c *gin.Context) {
			UpdateStatus(c, planner)
		})
	}
}

func ListAssignees(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	assignments, err := planner.ListAssignees(c.Request.Context(), taskID, controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, assignments)
}

func AddAssignedTask(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	var req dto.AssignRequest
	if !controller.Bind(c, &req) {
		return
	}
	assignment, err := planner.Assign(c.Request.Context(), taskID, controller.Requester(c), req.UserID, req.Role)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusCreated, assignment)
}

// ReassignTask replaces the whole assignee set. The set must hold exactly
// one Owner.
func ReassignTask(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	var req dto.ReassignRequest
	if !controller.Bind(c, &req) {
		return
	}
	set := make([]services.AssignmentInput, 0, len(req.Assignees))
	for _, a := range req.Assignees {
		set = append(set, services.AssignmentInput{UserID: a.UserID, Role: a.Role})
	}
	assignments, err := planner.ReassignAll(c.Request.Context(), taskID, controller.Requester(c), set)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, assignments)
}

func ChangeAssignedRole(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	target, ok := controller.ParamID(c, "user_id")
	if !ok {
		return
	}
	var req dto.AssignmentRoleRequest
	if !controller.Bind(c, &req) {
		return
	}
	assignment, err := planner.ChangeAssignmentRole(c.Request.Context(), taskID, controller.Requester(c), target, req.Role)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, assignment)
}

func DelAssignedTask(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	target, ok := controller.ParamID(c, "user_id")
	if !ok {
		return
	}
	if err := planner.Unassign(c.Request.Context(), taskID, controller.Requester(c), target); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "Assignment removed"})
}

func UpdateStatus(c *gin.Context, planner *services.Planner) {
	taskID, ok := controller.ParamID(c, "task_id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !controller.Bind(c, &req) {
		return
	}
	task, err := planner.UpdateStatus(c.Request.Context(), taskID, controller.Requester(c), req.Status)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, task)
}
