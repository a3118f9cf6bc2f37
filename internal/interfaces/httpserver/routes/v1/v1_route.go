package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/config"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/interfaces/httpserver/routes/v1/chat"
)

type V1Route struct {
	chat *chat.ChatRoute
}

func NewV1Route(chat *chat.ChatRoute) *V1Route {
	return &V1Route{
		chat: chat,
	}
}

func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)
	v1Router.GET("/healthz", GetHealthz)
	v1Router.GET("/readyz", GetReadyz)

	v1Route.chat.RegisterRouter(v1Router)
}

// GetVersion returns the current build version and environment reload time.
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":         config.Version,
		"env_reloaded_at": config.GetEnvReloadedAt().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetHealthz reports liveness.
func GetHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadyz reports readiness to accept traffic.
func GetReadyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
