package main

import (
	"os"

	"dunzo/connection"

	"github.com/gin-gonic/gin"
)

func main() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	connection.StartServer()
}
