package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler mounts a group of routes under Root. Public routes sit behind
// the rate limiter; admin routes additionally require the admin key.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup)
}
