package repository

import (
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Create(draft *entity.AllocationDraft) error {
	return r.db.Create(draft).Error
}

func (r *DraftRepository) GetByID(id string) (*entity.AllocationDraft, error) {
	var draft entity.AllocationDraft
	err := r.db.Preload("Bars", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Bars.Cuts", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Bars.Piece").
		Where("id = ?", id).First(&draft).Error
	return &draft, err
}

// GetByIDForUpdate 发料路径的行锁读取，防止同一方案并发重复发料
func (r *DraftRepository) GetByIDForUpdate(tx *gorm.DB, id string) (*entity.AllocationDraft, error) {
	var draft entity.AllocationDraft
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&draft).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Order("created_at ASC").Where("draft_id = ?", id).Find(&draft.Bars).Error; err != nil {
		return nil, err
	}
	for i := range draft.Bars {
		if err := tx.Order("seq ASC").Where("draft_bar_id = ?", draft.Bars[i].ID).Find(&draft.Bars[i].Cuts).Error; err != nil {
			return nil, err
		}
	}
	return &draft, nil
}

func (r *DraftRepository) Update(draft *entity.AllocationDraft) error {
	return r.db.Save(draft).Error
}

func (r *DraftRepository) UpdateTx(tx *gorm.DB, draft *entity.AllocationDraft) error {
	return tx.Save(draft).Error
}

type DraftListParams struct {
	Status string
	Page   int
	Size   int
}

func (r *DraftRepository) List(params DraftListParams) ([]entity.AllocationDraft, int64, error) {
	query := r.db.Model(&entity.AllocationDraft{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var drafts []entity.AllocationDraft
	err := query.Preload("Bars").Preload("Bars.Cuts").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&drafts).Error
	return drafts, total, err
}
