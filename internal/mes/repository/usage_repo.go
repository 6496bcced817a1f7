package repository

import (
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) CreateTx(tx *gorm.DB, rec *entity.MaterialUsageHistory) error {
	return tx.Create(rec).Error
}

func (r *UsageRepository) ListByPiece(pieceID string) ([]entity.MaterialUsageHistory, error) {
	var recs []entity.MaterialUsageHistory
	err := r.db.Where("piece_id = ?", pieceID).Order("used_at ASC").Find(&recs).Error
	return recs, err
}

// SumUsedByPiece 某料件累计使用长度与报废长度（守恒校验用）
func (r *UsageRepository) SumUsedByPiece(db *gorm.DB, pieceID string) (used, wastage decimal.Decimal, err error) {
	var result struct {
		Used    decimal.Decimal
		Wastage decimal.Decimal
	}
	err = db.Raw(`
		SELECT COALESCE(SUM(length_used_mm), 0) AS used,
		       COALESCE(SUM(wastage_generated_mm), 0) AS wastage
		FROM mes_material_usage_history
		WHERE piece_id = ?
	`, pieceID).Scan(&result).Error
	return result.Used, result.Wastage, err
}

type UsageListParams struct {
	PieceID           string
	MaterialTypeID    string
	RequisitionItemID string
	JobCardRef        string
	From              *time.Time
	To                *time.Time
	Page              int
	Size              int
}

func (r *UsageRepository) List(params UsageListParams) ([]entity.MaterialUsageHistory, int64, error) {
	query := r.db.Model(&entity.MaterialUsageHistory{})
	if params.PieceID != "" {
		query = query.Where("piece_id = ?", params.PieceID)
	}
	if params.MaterialTypeID != "" {
		query = query.Where("material_type_id = ?", params.MaterialTypeID)
	}
	if params.RequisitionItemID != "" {
		query = query.Where("requisition_item_id = ?", params.RequisitionItemID)
	}
	if params.JobCardRef != "" {
		query = query.Where("job_card_ref = ?", params.JobCardRef)
	}
	if params.From != nil {
		query = query.Where("used_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("used_at < ?", *params.To)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var recs []entity.MaterialUsageHistory
	err := query.Order("used_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&recs).Error
	return recs, total, err
}
