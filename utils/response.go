package utils

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// JSONDomainError maps a domain error onto its HTTP status and logs it.
func JSONDomainError(c *gin.Context, err error) {
	status := HTTPStatus(err)
	if status >= 500 {
		GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		GetLogger().Warn("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	JSONError(c, status, err.Error())
}
