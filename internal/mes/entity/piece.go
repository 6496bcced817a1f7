package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PieceStatus 料件状态
const (
	PieceStatusAvailable = "AVAILABLE" // 在库可用
	PieceStatusAllocated = "ALLOCATED" // 已分配待发料
	PieceStatusIssued    = "ISSUED"    // 已发料
	PieceStatusInUse     = "IN_USE"    // 加工中
	PieceStatusConsumed  = "CONSUMED"  // 用尽（终态）
	PieceStatusReturned  = "RETURNED"  // 退回待入库
	PieceStatusRejected  = "REJECTED"  // 质检拒收（终态）
	PieceStatusScrap     = "SCRAP"     // 报废（终态）
)

// pieceTransitions 料件状态机。未列出的迁移一律非法。
var pieceTransitions = map[string][]string{
	PieceStatusAvailable: {PieceStatusAllocated, PieceStatusRejected, PieceStatusScrap},
	PieceStatusAllocated: {PieceStatusIssued, PieceStatusReturned, PieceStatusScrap},
	PieceStatusIssued:    {PieceStatusInUse, PieceStatusConsumed, PieceStatusReturned, PieceStatusScrap},
	PieceStatusInUse:     {PieceStatusConsumed, PieceStatusReturned, PieceStatusScrap},
	PieceStatusReturned:  {PieceStatusAvailable, PieceStatusScrap},
}

// CanTransitionPiece 判断料件状态迁移是否合法
func CanTransitionPiece(from, to string) bool {
	for _, s := range pieceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalPieceStatus 终态判断（终态料件不再参与库存汇总）
func IsTerminalPieceStatus(status string) bool {
	return status == PieceStatusConsumed || status == PieceStatusScrap || status == PieceStatusRejected
}

// MaterialPiece 物理料件（单根棒料/管料/单张板料），按剩余长度精确追踪
type MaterialPiece struct {
	ID               string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PieceNumber      string          `json:"piece_number" gorm:"size:64;not null;uniqueIndex"`
	MaterialTypeID   string          `json:"material_type_id" gorm:"type:uuid;not null;index"`
	GRNID            string          `json:"grn_id" gorm:"size:36;index"`
	GRNLineID        string          `json:"grn_line_id" gorm:"size:36"`
	SupplierBatchNo  string          `json:"supplier_batch_no" gorm:"size:64"`
	OriginalLengthMM decimal.Decimal `json:"original_length_mm" gorm:"type:decimal(14,3);not null"`
	CurrentLengthMM  decimal.Decimal `json:"current_length_mm" gorm:"type:decimal(14,3);not null"`
	OriginalWeightKG decimal.Decimal `json:"original_weight_kg" gorm:"type:decimal(14,3);not null"`
	CurrentWeightKG  decimal.Decimal `json:"current_weight_kg" gorm:"type:decimal(14,3);not null"`
	UnitCost         decimal.Decimal `json:"unit_cost" gorm:"type:decimal(14,4);default:0"`
	Status           string          `json:"status" gorm:"size:20;not null;default:AVAILABLE;index"`
	IsWastage        bool            `json:"is_wastage" gorm:"default:false"`
	WastageReason    string          `json:"wastage_reason" gorm:"size:255"`
	ReceivedAt       time.Time       `json:"received_at" gorm:"not null;index"`
	CreatedBy        string          `json:"created_by" gorm:"size:64"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	MaterialType *MaterialType `json:"material_type,omitempty" gorm:"foreignKey:MaterialTypeID"`
}

func (MaterialPiece) TableName() string {
	return "mes_material_pieces"
}
