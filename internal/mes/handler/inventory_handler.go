package handler

import (
	"net/http"
	"strconv"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// Stock GET /stock/:material_id 库存汇总（带redis缓存）
func (h *InventoryHandler) Stock(c *gin.Context) {
	inv, err := h.svc.GetStock(c.Request.Context(), c.Param("material_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, inv)
}

// Adjust POST /stock/adjust 人工调整（盘点通道）
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	inv, err := h.svc.AdjustStock(&req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, inv)
}

func (h *InventoryHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.Alerts()
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, alerts)
}

func (h *InventoryHandler) Transactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	txs, total, err := h.svc.ListTransactions(c.Query("material_id"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": txs, "total": total, "page": page, "size": size})
}

// Conservation GET /stock/:material_id/conservation 三账核对
func (h *InventoryHandler) Conservation(c *gin.Context) {
	report, err := h.svc.VerifyConservation(c.Param("material_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, report)
}
