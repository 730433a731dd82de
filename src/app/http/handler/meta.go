package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// Version is the API version reported by GET /version.
	Version = "0.1.0"

	// Description is the API name reported by GET /version.
	Description = "Budget Tool API"
)

// Root answers GET /.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
}

// VersionInfo answers GET /version.
func VersionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     Version,
		"description": Description,
	})
}
