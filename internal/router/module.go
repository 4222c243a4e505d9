package router

import "github.com/gin-gonic/gin"

// Module is one feature area's route set (auth, users). Modules attach their
// routes and per-route middleware to the shared API group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
