package user

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func UserController(router *gin.Engine, planner *services.Planner) {
	routes := router.Group("/user", middleware.AccessTokenMiddleware())
	{
		routes.GET("/profile", func(c *gin.Context) {
			Profile(c, planner)
		})
		routes.PUT("/profile", func(c *gin.Context) {
			UpdateProfile(c, planner)
		})
		routes.PUT("/fcmtoken", func(c *gin.Context) {
			UpdateFCMToken(c, planner)
		})
		routes.DELETE("/account", func(c *gin.Context) {
			DeleteAccount(c, planner)
		})
	}
}

func Profile(c *gin.Context, planner *services.Planner) {
	user, err := planner.GetProfile(c.Request.Context(), controller.Requester(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, user)
}

func UpdateProfile(c *gin.Context, planner *services.Planner) {
	var req dto.UpdateProfileRequest
	if !controller.Bind(c, &req) {
		return
	}
	user, err := planner.UpdateProfile(c.Request.Context(), controller.Requester(c), services.ProfileUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, user)
}

func UpdateFCMToken(c *gin.Context, planner *services.Planner) {
	var req dto.FCMTokenRequest
	if !controller.Bind(c, &req) {
		return
	}
	if err := planner.UpdateFCMToken(c.Request.Context(), controller.Requester(c), req.Token); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "FCM token updated"})
}

// DeleteAccount removes the caller and everything they own.
func DeleteAccount(c *gin.Context, planner *services.Planner) {
	if err := planner.DeleteAccount(c.Request.Context(), controller.Requester(c)); err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, http.StatusOK, gin.H{"message": "Account deleted"})
}
