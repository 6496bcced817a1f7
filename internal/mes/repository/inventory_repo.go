package repository

import (
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) GetByMaterial(materialTypeID string) (*entity.Inventory, error) {
	var inv entity.Inventory
	err := r.db.Preload("MaterialType").Where("material_type_id = ?", materialTypeID).First(&inv).Error
	return &inv, err
}

func (r *InventoryRepository) UpsertTx(tx *gorm.DB, inv *entity.Inventory) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "material_type_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_qty", "available_qty", "allocated_qty", "issued_qty", "reserved_qty",
			"avg_unit_cost", "is_low_stock", "is_out_of_stock", "last_moved_at", "updated_at",
		}),
	}).Create(inv).Error
}

func (r *InventoryRepository) CreateTransactionTx(tx *gorm.DB, t *entity.InventoryTransaction) error {
	return tx.Create(t).Error
}

// SumTransactions 交易流水净额（库存总量的事实来源）
func (r *InventoryRepository) SumTransactions(db *gorm.DB, materialTypeID string) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := db.Raw(`
		SELECT COALESCE(SUM(quantity), 0) AS total
		FROM mes_inventory_transactions
		WHERE material_type_id = ?
	`, materialTypeID).Scan(&result).Error
	return result.Total, err
}

// SumPiecesByStatus 按状态汇总料件剩余长度
func (r *InventoryRepository) SumPiecesByStatus(db *gorm.DB, materialTypeID string, statuses []string) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := db.Raw(`
		SELECT COALESCE(SUM(current_length_mm), 0) AS total
		FROM mes_material_pieces
		WHERE material_type_id = ? AND status IN ?
	`, materialTypeID, statuses).Scan(&result).Error
	return result.Total, err
}

// AvgStockInCost 入库流水的加权平均单价
func (r *InventoryRepository) AvgStockInCost(db *gorm.DB, materialTypeID string) (decimal.Decimal, error) {
	var result struct{ Avg decimal.Decimal }
	err := db.Raw(`
		SELECT COALESCE(SUM(quantity * unit_cost) / NULLIF(SUM(quantity), 0), 0) AS avg
		FROM mes_inventory_transactions
		WHERE material_type_id = ? AND quantity > 0 AND unit_cost > 0
	`, materialTypeID).Scan(&result).Error
	return result.Avg, err
}

func (r *InventoryRepository) ListAlerts() ([]entity.Inventory, error) {
	var alerts []entity.Inventory
	err := r.db.Preload("MaterialType").Where("is_low_stock = true OR is_out_of_stock = true").
		Find(&alerts).Error
	return alerts, err
}

func (r *InventoryRepository) ListTransactions(materialTypeID string, page, size int) ([]entity.InventoryTransaction, int64, error) {
	query := r.db.Model(&entity.InventoryTransaction{})
	if materialTypeID != "" {
		query = query.Where("material_type_id = ?", materialTypeID)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var txs []entity.InventoryTransaction
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&txs).Error
	return txs, total, err
}

// DB 返回底层db用于事务
func (r *InventoryRepository) DB() *gorm.DB {
	return r.db
}
