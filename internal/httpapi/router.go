// Package httpapi is the REST surface: routing, request decoding, the error
// envelope and the auxiliary health, info and dev endpoints.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-user-cache/internal/apperr"
	"github.com/goliatone/go-user-cache/internal/buildinfo"
)

// Options configures the router.
type Options struct {
	Users   UserService
	Logger  *zap.Logger
	AppName string
	Profile string
	// DevEndpoints mounts /dev/test.
	DevEndpoints bool
	// Health, when set, is consulted by /health.
	Health func(ctx context.Context) error
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(RequestID(), AccessLog(logger), Recovery(logger))

	r.NoRoute(func(c *gin.Context) {
		writeError(c, logger, apperr.New(apperr.KindNotFound, apperr.CodeNotFound,
			fmt.Sprintf("No handler found for %s %s", c.Request.Method, c.Request.URL.Path)))
	})
	r.NoMethod(func(c *gin.Context) {
		writeError(c, logger, apperr.New(apperr.KindMethodNotAllowed, apperr.CodeMethodNotAllowed,
			fmt.Sprintf("'%s' method is not supported.", c.Request.Method)))
	})

	uh := NewUserHandler(opts.Users, logger)
	v1 := r.Group("/api/v1")
	v1.Use(RequireJSON(logger))
	{
		users := v1.Group("/users")
		users.POST("", uh.Create)
		users.GET("", uh.List)
		users.GET("/:id", uh.Get)
		users.PUT("/:id", uh.Update)
		users.DELETE("/:id", uh.Delete)
	}

	r.GET("/health", health(opts.Health))
	r.GET("/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, buildinfo.Get(opts.AppName, opts.Profile))
	})

	if opts.DevEndpoints {
		r.GET("/dev/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "This is a dev message."})
		})
	}

	return r
}

func health(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	}
}
