package handler

import (
	"net/http"
	"strconv"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type PieceHandler struct {
	svc *service.PieceService
}

func NewPieceHandler(svc *service.PieceService) *PieceHandler {
	return &PieceHandler{svc: svc}
}

func (h *PieceHandler) Get(c *gin.Context) {
	piece, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, piece)
}

func (h *PieceHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.PieceListParams{
		MaterialTypeID: c.Query("material_type_id"),
		GRNID:          c.Query("grn_id"),
		Status:         c.Query("status"),
		Keyword:        c.Query("keyword"),
		Page:           page,
		Size:           size,
	}
	items, total, err := h.svc.List(params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": items, "total": total, "page": page, "size": size})
}

type markStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// MarkStatus POST /pieces/:id/status 料件状态流转（退料、报废、拒收等）
func (h *PieceHandler) MarkStatus(c *gin.Context) {
	var req markStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	piece, err := h.svc.MarkStatus(c.Param("id"), req.Status, currentUser(c), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, piece)
}

// Conservation GET /pieces/:id/conservation 单件守恒校验
func (h *PieceHandler) Conservation(c *gin.Context) {
	balanced, err := h.svc.VerifyConservation(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"balanced": balanced})
}
