package handler

import (
	"net/http"
	"strconv"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type GRNHandler struct {
	svc *service.ReceiptService
}

func NewGRNHandler(svc *service.ReceiptService) *GRNHandler {
	return &GRNHandler{svc: svc}
}

// Submit POST /grns 提交收货单，超差会落PENDING_APPROVAL
func (h *GRNHandler) Submit(c *gin.Context) {
	var req service.SubmitGRNRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	result, err := h.svc.SubmitGRN(req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, result)
}

func (h *GRNHandler) Get(c *gin.Context) {
	grn, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, grn)
}

func (h *GRNHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.GRNListParams{
		Status:  c.Query("status"),
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

func (h *GRNHandler) Pieces(c *gin.Context) {
	pieces, err := h.svc.ListPieces(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, pieces)
}

type resolveGRNRequest struct {
	Notes string `json:"notes"`
}

// Approve POST /grns/:id/approve 审批通过并生成料件
func (h *GRNHandler) Approve(c *gin.Context) {
	var req resolveGRNRequest
	_ = c.ShouldBindJSON(&req)
	pieces, err := h.svc.ApproveGRN(c.Request.Context(), c.Param("id"), currentUser(c), req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, pieces)
}

// Reject POST /grns/:id/reject
func (h *GRNHandler) Reject(c *gin.Context) {
	var req resolveGRNRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.svc.RejectGRN(c.Request.Context(), c.Param("id"), currentUser(c), req.Notes); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
