package handler

import (
	"net/http"
	"strconv"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type MaterialHandler struct {
	svc *service.MaterialService
}

func NewMaterialHandler(svc *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{svc: svc}
}

func (h *MaterialHandler) Create(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	m, err := h.svc.Create(req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, m)
}

func (h *MaterialHandler) Get(c *gin.Context) {
	m, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, m)
}

func (h *MaterialHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.MaterialListParams{
		Grade:   c.Query("grade"),
		Shape:   c.Query("shape"),
		Keyword: c.Query("keyword"),
		Page:    page,
		Size:    size,
	}
	items, total, err := h.svc.List(params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": items, "total": total, "page": page, "size": size})
}
