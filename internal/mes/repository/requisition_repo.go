package repository

import (
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequisitionRepository struct {
	db *gorm.DB
}

func NewRequisitionRepository(db *gorm.DB) *RequisitionRepository {
	return &RequisitionRepository{db: db}
}

func (r *RequisitionRepository) Create(req *entity.MaterialRequisition) error {
	return r.db.Create(req).Error
}

func (r *RequisitionRepository) GetByID(id string) (*entity.MaterialRequisition, error) {
	var req entity.MaterialRequisition
	err := r.db.Preload("Items").Preload("Items.MaterialType").
		Where("id = ? AND deleted_at IS NULL", id).First(&req).Error
	return &req, err
}

func (r *RequisitionRepository) GetItem(itemID string) (*entity.MaterialRequisitionItem, error) {
	var item entity.MaterialRequisitionItem
	err := r.db.Preload("MaterialType").Where("id = ?", itemID).First(&item).Error
	return &item, err
}

func (r *RequisitionRepository) GetItemForUpdate(tx *gorm.DB, itemID string) (*entity.MaterialRequisitionItem, error) {
	var item entity.MaterialRequisitionItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", itemID).First(&item).Error
	return &item, err
}

func (r *RequisitionRepository) UpdateItemTx(tx *gorm.DB, item *entity.MaterialRequisitionItem) error {
	return tx.Save(item).Error
}

func (r *RequisitionRepository) UpdateTx(tx *gorm.DB, req *entity.MaterialRequisition) error {
	return tx.Save(req).Error
}

func (r *RequisitionRepository) Update(req *entity.MaterialRequisition) error {
	return r.db.Save(req).Error
}

type RequisitionListParams struct {
	Status     string
	JobCardRef string
	Keyword    string
	Page       int
	Size       int
}

func (r *RequisitionRepository) List(params RequisitionListParams) ([]entity.MaterialRequisition, int64, error) {
	query := r.db.Model(&entity.MaterialRequisition{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.JobCardRef != "" {
		query = query.Where("job_card_ref = ?", params.JobCardRef)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("req_code ILIKE ? OR job_card_ref ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var reqs []entity.MaterialRequisition
	err := query.Preload("Items").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&reqs).Error
	return reqs, total, err
}
