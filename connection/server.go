package connection

import (
	"context"
	"log"
	"time"

	"dunzo/controller"
	"dunzo/controller/assigned"
	"dunzo/controller/auth"
	"dunzo/controller/calendar"
	"dunzo/controller/comment"
	"dunzo/controller/member"
	"dunzo/controller/notification"
	"dunzo/controller/project"
	"dunzo/controller/realtime"
	"dunzo/controller/tag"
	"dunzo/controller/task"
	"dunzo/controller/user"
	"dunzo/middleware"
	"dunzo/scheduler"
	"dunzo/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter registers every controller on a fresh engine.
func NewRouter(planner *services.Planner, hub *realtime.Hub, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AddAllowHeaders("Authorization", middleware.RequestIDHeader)
	corsConfig.AddExposeHeaders(middleware.RequestIDHeader)
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))
	router.Use(middleware.RequestID())

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Api is running!"})
	})

	auth.AuthController(router, planner)
	user.UserController(router, planner)
	project.ProjectController(router, planner)
	member.MemberController(router, planner)
	tag.TagController(router, planner)
	task.TaskController(router, planner)
	assigned.AssignedController(router, planner)
	comment.CommentController(router, planner)
	calendar.CalendarController(router, planner)
	notification.NotificationController(router, planner)
	realtime.RealtimeController(router, planner, hub)

	return router
}

func StartServer() {
	cfg := LoadConfig()
	if err := controller.RegisterValidators(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}

	DB, err := DBConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	FS, FCM, err := FBConnection(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	if FS != nil {
		defer FS.Close()
	}

	hub := realtime.NewHub(cfg.AllowedOrigins)
	planner := services.NewPlanner(DB,
		services.WithMirror(services.NewFirebaseMirror(FS, FCM)),
		services.WithBroadcaster(hub),
	)

	jobs, err := scheduler.StartScheduler(planner, cfg.ReminderCron, cfg.CleanupCron)
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}
	defer jobs.Stop()

	router := NewRouter(planner, hub, cfg.AllowedOrigins)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
