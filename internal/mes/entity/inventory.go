package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType 库存交易类型
const (
	TxTypeStockIn  = "STOCK_IN"  // 收货入库
	TxTypeStockOut = "STOCK_OUT" // 发料出库
	TxTypeAdjust   = "ADJUST"    // 人工调整（对账通道）
	TxTypeReturn   = "RETURN_IN" // 退料入库
	TxTypeScrap    = "SCRAP_OUT" // 报废出库
)

// Inventory 库存汇总行（物化视图）。不是事实来源：
// 任意时刻可由交易流水与料件状态完整重建，且必须与两者一致。
type Inventory struct {
	ID             string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MaterialTypeID string          `json:"material_type_id" gorm:"type:uuid;not null;uniqueIndex"`
	TotalQty       decimal.Decimal `json:"total_qty" gorm:"type:decimal(14,3);default:0"`
	AvailableQty   decimal.Decimal `json:"available_qty" gorm:"type:decimal(14,3);default:0"`
	AllocatedQty   decimal.Decimal `json:"allocated_qty" gorm:"type:decimal(14,3);default:0"`
	IssuedQty      decimal.Decimal `json:"issued_qty" gorm:"type:decimal(14,3);default:0"`
	ReservedQty    decimal.Decimal `json:"reserved_qty" gorm:"type:decimal(14,3);default:0"`
	AvgUnitCost    decimal.Decimal `json:"avg_unit_cost" gorm:"type:decimal(14,4);default:0"`
	IsLowStock     bool            `json:"is_low_stock" gorm:"default:false"`
	IsOutOfStock   bool            `json:"is_out_of_stock" gorm:"default:false"`
	LastMovedAt    *time.Time      `json:"last_moved_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	MaterialType *MaterialType `json:"material_type,omitempty" gorm:"foreignKey:MaterialTypeID"`
}

func (Inventory) TableName() string {
	return "mes_inventory"
}

// InventoryTransaction 库存流水（只追加）。正=入，负=出。
type InventoryTransaction struct {
	ID             string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MaterialTypeID string          `json:"material_type_id" gorm:"type:uuid;not null;index"`
	MaterialCode   string          `json:"material_code" gorm:"size:64"` // 审计留痕
	TransactionType string         `json:"transaction_type" gorm:"size:20;not null"`
	Quantity       decimal.Decimal `json:"quantity" gorm:"type:decimal(14,3);not null"`
	UnitCost       decimal.Decimal `json:"unit_cost" gorm:"type:decimal(14,4);default:0"`
	PieceID        string          `json:"piece_id" gorm:"size:36;index"`
	ReferenceType  string          `json:"reference_type" gorm:"size:20;not null"` // GRN, DRAFT, ADJUST, PIECE
	ReferenceID    string          `json:"reference_id" gorm:"size:64;not null"`
	Reason         string          `json:"reason" gorm:"size:255"`
	CreatedBy      string          `json:"created_by" gorm:"size:64;not null"`
	CreatedAt      time.Time       `json:"created_at" gorm:"index"`
}

func (InventoryTransaction) TableName() string {
	return "mes_inventory_transactions"
}
