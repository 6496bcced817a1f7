package repository

import (
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"gorm.io/gorm"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) Create(m *entity.MaterialType) error {
	return r.db.Create(m).Error
}

func (r *MaterialRepository) GetByID(id string) (*entity.MaterialType, error) {
	var m entity.MaterialType
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&m).Error
	return &m, err
}

func (r *MaterialRepository) GetByCode(code string) (*entity.MaterialType, error) {
	var m entity.MaterialType
	err := r.db.Where("code = ? AND deleted_at IS NULL", code).First(&m).Error
	return &m, err
}

func (r *MaterialRepository) Update(m *entity.MaterialType) error {
	return r.db.Save(m).Error
}

type MaterialListParams struct {
	Grade   string
	Shape   string
	Keyword string
	Page    int
	Size    int
}

func (r *MaterialRepository) List(params MaterialListParams) ([]entity.MaterialType, int64, error) {
	query := r.db.Model(&entity.MaterialType{}).Where("deleted_at IS NULL")
	if params.Grade != "" {
		query = query.Where("grade = ?", params.Grade)
	}
	if params.Shape != "" {
		query = query.Where("shape = ?", params.Shape)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.MaterialType
	err := query.Order("code ASC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}
