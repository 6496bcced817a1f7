package handler

import (
	"strconv"
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func usageParamsFromQuery(c *gin.Context) repository.UsageListParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.UsageListParams{
		PieceID:           c.Query("piece_id"),
		MaterialTypeID:    c.Query("material_type_id"),
		RequisitionItemID: c.Query("requisition_item_id"),
		JobCardRef:        c.Query("job_card_ref"),
		Page:              page,
		Size:              size,
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			params.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			params.To = &t
		}
	}
	return params
}

// Usage GET /usage 耗用明细查询
func (h *ReportHandler) Usage(c *gin.Context) {
	params := usageParamsFromQuery(c)
	items, total, err := h.svc.ListUsage(params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": items, "total": total, "page": params.Page, "size": params.Size})
}

// ExportUsage GET /reports/usage/export 导出耗用明细xlsx
func (h *ReportHandler) ExportUsage(c *gin.Context) {
	f, filename, err := h.svc.ExportUsage(usageParamsFromQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	writeExcel(c, f, filename)
}

// ExportStock GET /reports/stock/export 导出库存汇总xlsx
func (h *ReportHandler) ExportStock(c *gin.Context) {
	f, filename, err := h.svc.ExportStockSummary()
	if err != nil {
		fail(c, err)
		return
	}
	writeExcel(c, f, filename)
}

func writeExcel(c *gin.Context, f *excelize.File, filename string) {
	defer f.Close()
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	_ = f.Write(c.Writer)
}
