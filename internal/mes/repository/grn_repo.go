package repository

import (
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GRNRepository struct {
	db *gorm.DB
}

func NewGRNRepository(db *gorm.DB) *GRNRepository {
	return &GRNRepository{db: db}
}

func (r *GRNRepository) CreateTx(tx *gorm.DB, grn *entity.GRN) error {
	return tx.Create(grn).Error
}

func (r *GRNRepository) GetByID(id string) (*entity.GRN, error) {
	var grn entity.GRN
	err := r.db.Preload("Lines").Preload("Lines.MaterialType").Where("id = ?", id).First(&grn).Error
	return &grn, err
}

// GetByIDForUpdate 审批路径的行锁读取，保证同一GRN只产生一个终局结果
func (r *GRNRepository) GetByIDForUpdate(tx *gorm.DB, id string) (*entity.GRN, error) {
	var grn entity.GRN
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&grn).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("grn_id = ?", id).Find(&grn.Lines).Error; err != nil {
		return nil, err
	}
	return &grn, nil
}

func (r *GRNRepository) UpdateTx(tx *gorm.DB, grn *entity.GRN) error {
	return tx.Save(grn).Error
}

type GRNListParams struct {
	Status  string
	Keyword string
	Page    int
	Size    int
}

func (r *GRNRepository) List(params GRNListParams) ([]entity.GRN, int64, error) {
	query := r.db.Model(&entity.GRN{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("grn_code ILIKE ? OR supplier_name ILIKE ? OR po_ref ILIKE ?", kw, kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var grns []entity.GRN
	err := query.Preload("Lines").Order("received_date DESC, grn_code DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&grns).Error
	return grns, total, err
}
