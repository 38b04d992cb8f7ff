package calendar

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func CalendarController(router *gin.Engine, planner *services.Planner) {
	routes := router.Group("/calendar", middleware.AccessTokenMiddleware())
	{
		routes.GET("", func(c *gin.Context) {
			ListEvents(c, planner)
		})
		routes.POST("", func(c *gin.Context) {
			CreateEvent(c, planner)
		})
		routes.GET("/:event_id", func(c *gin.Context) {
			GetEvent(c, planner)
		})
		routes.PUT("/:event_id", func(c *gin.Context) {
			UpdateEvent(c, planner)
		})
		routes.PUT("/:event_id/reschedule", func(c *gin.Context) {
			RescheduleEvent(c, planner)
		})
		routes.DELETE("/:event_id", func(c *gin.Context) {
			DeleteEvent(c, planner)
		})
	}
}

// ListEvents takes optional RFC 3339 ?from= and ?to= bounds.
func ListEvents(c *gin.Context, planner *services.Planner) {
	var query dto.EventQuery
	if !controller.BindQuery(c, &query) {
		return
	}
	events, err := planner.ListEvents(c.Request.Context(), controller.Requester(c), query.From, query.To)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, events)
}

func CreateEvent(c *gin.Context, planner *services.Planner) {
	var req dto.CreateEventRequest
	if !controller.Bind(c, &req) {
		return
	}
	event, err := planner.CreateEvent(c.Request.Context(), controller.Requester(c), services.EventInput{
		Type:           req.Type,
		Title:          req.Title,
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ProjectID:      req.ProjectID,
		TaskID:         req.TaskID,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusCreated, event)
}

func GetEvent(c *gin.Context, planner *services.Planner) {
	eventID, ok := controller.ParamID(c, "event_id")
	if !ok {
		return
	}
	event, err := planner.GetEvent(c.Request.Context(), eventID, controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, event)
}

func UpdateEvent(c *gin.Context, planner *services.Planner) {
	eventID, ok := controller.ParamID(c, "event_id")
	if !ok {
		return
	}
	var req dto.UpdateEventRequest
	if !controller.Bind(c, &req) {
		return
	}
	event, err := planner.UpdateEvent(c.Request.Context(), eventID, controller.Requester(c), services.EventUpdate{
		Title:          req.Title,
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, event)
}

// RescheduleEvent moves an event. Meeting participants may do this too.
func RescheduleEvent(c *gin.Context, planner *services.Planner) {
	eventID, ok := controller.ParamID(c, "event_id")
	if !ok {
		return
	}
	var req dto.RescheduleRequest
	if !controller.Bind(c, &req) {
		return
	}
	event, err := planner.RescheduleEvent(c.Request.Context(), eventID, controller.Requester(c), req.StartDate, req.EndDate)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, event)
}

func DeleteEvent(c *gin.Context, planner *services.Planner) {
	eventID, ok := controller.ParamID(c, "event_id")
	if !ok {
		return
	}
	if err := planner.DeleteEvent(c.Request.Context(), eventID, controller.Requester(c)); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "Event deleted"})
}
