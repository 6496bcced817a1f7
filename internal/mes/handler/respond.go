package handler

import (
	"errors"
	"net/http"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// fail 把服务层错误映射为HTTP状态码与业务码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDraftNotOpen),
		errors.Is(err, service.ErrAlreadyResolved),
		errors.Is(err, service.ErrConcurrentModification),
		errors.Is(err, service.ErrOverAllocation):
		c.JSON(http.StatusConflict, gin.H{"code": 10003, "message": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInsufficientLength),
		errors.Is(err, service.ErrStalePiece):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 10004, "message": err.Error()})
	case errors.Is(err, service.ErrLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": 10005, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

func currentUser(c *gin.Context) string {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return "system"
}
