package handler

import (
	"net/http"
	"strconv"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// DraftHandler 切割方案：计划、查询、发料、作废
type DraftHandler struct {
	planner *service.PlannerService
	issue   *service.IssueService
}

func NewDraftHandler(planner *service.PlannerService, issue *service.IssueService) *DraftHandler {
	return &DraftHandler{planner: planner, issue: issue}
}

// Plan POST /drafts 生成切割方案（不动库存）
func (h *DraftHandler) Plan(c *gin.Context) {
	var req service.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	draft, err := h.planner.Plan(req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, draft)
}

func (h *DraftHandler) Get(c *gin.Context) {
	draft, err := h.planner.GetByID(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, draft)
}

func (h *DraftHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.DraftListParams{
		Status: c.Query("status"),
		Page:   page,
		Size:   size,
	}
	items, total, err := h.planner.List(params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": items, "total": total, "page": page, "size": size})
}

// Issue POST /drafts/:id/issue 执行发料（原子落账）
func (h *DraftHandler) Issue(c *gin.Context) {
	result, err := h.issue.Issue(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, result)
}

// Cancel POST /drafts/:id/cancel
func (h *DraftHandler) Cancel(c *gin.Context) {
	draft, err := h.planner.Cancel(c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, draft)
}
