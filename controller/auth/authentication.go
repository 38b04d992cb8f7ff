package auth

import (
	"net/http"

	"dunzo/controller"
	"dunzo/dto"
	"dunzo/middleware"
	"dunzo/model"
	"dunzo/services"

	"github.com/gin-gonic/gin"
)

func AuthController(router *gin.Engine, planner *services.Planner) {
	routes := router.Group("/auth")
	{
		routes.POST("/signup", func(c *gin.Context) {
			Signup(c, planner)
		})
		routes.POST("/signin", func(c *gin.Context) {
			Signin(c, planner)
		})
	}
}

func issue(c *gin.Context, status int, user *model.User) {
	token, err := middleware.CreateAccessToken(user.UserID)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	controller.OK(c, status, gin.H{"token": token, "user": user})
}

func Signup(c *gin.Context, planner *services.Planner) {
	var req dto.SignupRequest
	if !controller.Bind(c, &req) {
		return
	}
	user, err := planner.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	issue(c, http.StatusCreated, user)
}

func Signin(c *gin.Context, planner *services.Planner) {
	var req dto.SigninRequest
	if !controller.Bind(c, &req) {
		return
	}
	user, err := planner.Authenticate(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	issue(c, http.StatusOK, user)
}
