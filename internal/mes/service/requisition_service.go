package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RequisitionService struct {
	repo         *repository.RequisitionRepository
	materialRepo *repository.MaterialRepository
}

func NewRequisitionService(repo *repository.RequisitionRepository, materialRepo *repository.MaterialRepository) *RequisitionService {
	return &RequisitionService{repo: repo, materialRepo: materialRepo}
}

type CreateRequisitionItem struct {
	MaterialTypeID string          `json:"material_type_id" binding:"required"`
	RequiredQty    decimal.Decimal `json:"required_qty" binding:"required"`
	AllowOverIssue bool            `json:"allow_over_issue"`
	Notes          string          `json:"notes"`
}

type CreateRequisitionRequest struct {
	JobCardRef string                  `json:"job_card_ref"`
	OrderRef   string                  `json:"order_ref"`
	Priority   int                     `json:"priority"`
	DueDate    *time.Time              `json:"due_date"`
	Notes      string                  `json:"notes"`
	Items      []CreateRequisitionItem `json:"items" binding:"required,min=1"`
}

func (s *RequisitionService) Create(req CreateRequisitionRequest, userID string) (*entity.MaterialRequisition, error) {
	items := make([]entity.MaterialRequisitionItem, 0, len(req.Items))
	for _, it := range req.Items {
		if !it.RequiredQty.IsPositive() {
			return nil, fmt.Errorf("%w: 需求数量必须为正", ErrValidation)
		}
		if _, err := s.materialRepo.GetByID(it.MaterialTypeID); err != nil {
			return nil, fmt.Errorf("%w: 材料 %s", ErrNotFound, it.MaterialTypeID)
		}
		items = append(items, entity.MaterialRequisitionItem{
			ID:             uuid.New().String(),
			MaterialTypeID: it.MaterialTypeID,
			RequiredQty:    it.RequiredQty,
			AllocatedQty:   decimal.Zero,
			IssuedQty:      decimal.Zero,
			AllowOverIssue: it.AllowOverIssue,
			Notes:          it.Notes,
		})
	}

	code := fmt.Sprintf("REQ-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000)
	r := &entity.MaterialRequisition{
		ID:         uuid.New().String(),
		ReqCode:    code,
		JobCardRef: req.JobCardRef,
		OrderRef:   req.OrderRef,
		Priority:   req.Priority,
		DueDate:    req.DueDate,
		Status:     entity.ReqStatusOpen,
		Notes:      req.Notes,
		CreatedBy:  userID,
		Items:      items,
	}
	if err := s.repo.Create(r); err != nil {
		return nil, fmt.Errorf("创建领料单失败: %w", err)
	}
	return r, nil
}

func (s *RequisitionService) GetByID(id string) (*entity.MaterialRequisition, error) {
	r, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 领料单 %s", ErrNotFound, id)
	}
	return r, err
}

func (s *RequisitionService) List(params repository.RequisitionListParams) ([]entity.MaterialRequisition, int64, error) {
	return s.repo.List(params)
}
