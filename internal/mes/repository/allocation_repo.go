package repository

import (
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

func (r *AllocationRepository) CreateTx(tx *gorm.DB, alloc *entity.MaterialAllocation) error {
	return tx.Create(alloc).Error
}

func (r *AllocationRepository) ListByPiece(pieceID string) ([]entity.MaterialAllocation, error) {
	var allocs []entity.MaterialAllocation
	err := r.db.Where("piece_id = ?", pieceID).Order("created_at ASC").Find(&allocs).Error
	return allocs, err
}

func (r *AllocationRepository) ListByRequisitionItem(itemID string) ([]entity.MaterialAllocation, error) {
	var allocs []entity.MaterialAllocation
	err := r.db.Where("requisition_item_id = ?", itemID).Order("created_at ASC").Find(&allocs).Error
	return allocs, err
}

func (r *AllocationRepository) ListByDraft(draftID string) ([]entity.MaterialAllocation, error) {
	var allocs []entity.MaterialAllocation
	err := r.db.Where("draft_id = ?", draftID).Order("created_at ASC").Find(&allocs).Error
	return allocs, err
}

// SumIssuedByMaterial 某材料累计发料长度（库存汇总重算用）
func (r *AllocationRepository) SumIssuedByMaterial(tx *gorm.DB, materialTypeID string) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := tx.Raw(`
		SELECT COALESCE(SUM(a.allocated_length_mm), 0) AS total
		FROM mes_material_allocations a
		JOIN mes_material_pieces p ON p.id = a.piece_id
		WHERE p.material_type_id = ? AND a.is_issued = true
	`, materialTypeID).Scan(&result).Error
	return result.Total, err
}
