package notification

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func NotificationController(router *gin.Engine, planner *services.Planner) {
	routes := router.Group("/notification", middleware.AccessTokenMiddleware())
	{
		routes.GET("", func(c *gin.Context) {
			ListNotifications(c, planner)
		})
		routes.PUT("/readall", func(c *gin.Context) {
			MarkAllRead(c, planner)
		})
		routes.PUT("/:notification_id/read", func(c *gin.Context) {
			MarkRead(c, planner)
		})
		routes.DELETE("/:notification_id", func(c *gin.Context) {
			DeleteNotification(c, planner)
		})
	}
}

func ListNotifications(c *gin.Context, planner *services.Planner) {
	var query dto.NotificationQuery
	if !controller.BindQuery(c, &query) {
		return
	}
	notes, err := planner.ListNotifications(c.Request.Context(), controller.Requester(c), query.UnreadOnly)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, notes)
}

func MarkRead(c *gin.Context, planner *services.Planner) {
	notificationID, ok := controller.ParamID(c, "notification_id")
	if !ok {
		return
	}
	note, err := planner.MarkRead(c.Request.Context(), notificationID, controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, note)
}

func MarkAllRead(c *gin.Context, planner *services.Planner) {
	n, err := planner.MarkAllRead(c.Request.Context(), controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"updated": n})
}

func DeleteNotification(c *gin.Context, planner *services.Planner) {
	notificationID, ok := controller.ParamID(c, "notification_id")
	if !ok {
		return
	}
	if err := planner.DeleteNotification(c.Request.Context(), notificationID, controller.Requester(c)); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "Notification deleted"})
}
