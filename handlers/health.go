package handlers

import (
	"net/http"

	"dentaflow/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last known state of the external collaborators.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"dependencies": utils.GetHealthStatus(),
	})
}
