package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有库存/配料表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 材料主数据
		&MaterialType{},

		// 料件台账
		&MaterialPiece{},

		// 收货
		&GRN{},
		&GRNLine{},

		// 领料
		&MaterialRequisition{},
		&MaterialRequisitionItem{},

		// 切割方案
		&AllocationDraft{},
		&DraftBar{},
		&DraftCut{},

		// 分配与使用记录
		&MaterialAllocation{},
		&MaterialUsageHistory{},

		// 库存汇总
		&Inventory{},
		&InventoryTransaction{},
	)
}
