package project

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func Timeline(c *gin.Context, planner *services.Planner) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	var query dto.TimelineQuery
	if !controller.BindQuery(c, &query) {
		return
	}
	entries, err := planner.ListTimeline(c.Request.Context(), projectID, controller.Requester(c), query.Limit)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, entries)
}
