package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialAllocation 领料单行与料件的绑定记录（只追加）。
// 对任一料件，其全部分配长度加当前剩余长度恒等于原始长度，守恒可审计。
type MaterialAllocation struct {
	ID                string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RequisitionItemID string          `json:"requisition_item_id" gorm:"type:uuid;not null;index"`
	PieceID           string          `json:"piece_id" gorm:"type:uuid;not null;index"`
	DraftID           string          `json:"draft_id" gorm:"size:36;index"`
	AllocatedLengthMM decimal.Decimal `json:"allocated_length_mm" gorm:"type:decimal(14,3);not null"`
	AllocatedWeightKG decimal.Decimal `json:"allocated_weight_kg" gorm:"type:decimal(14,3)"`
	RemainingAfterMM  decimal.Decimal `json:"remaining_after_mm" gorm:"type:decimal(14,3)"` // 发料后该料件剩余
	IsIssued          bool            `json:"is_issued" gorm:"default:false"`
	IssuedBy          string          `json:"issued_by" gorm:"size:64"`
	IssuedAt          *time.Time      `json:"issued_at"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (MaterialAllocation) TableName() string {
	return "mes_material_allocations"
}

// MaterialUsageHistory 切割事件审计记录（只追加，永不修改或删除）
type MaterialUsageHistory struct {
	ID                 string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PieceID            string          `json:"piece_id" gorm:"type:uuid;not null;index"`
	PieceNumber        string          `json:"piece_number" gorm:"size:64"` // 审计留痕，随事件固化
	MaterialTypeID     string          `json:"material_type_id" gorm:"type:uuid;not null;index"`
	RequisitionItemID  string          `json:"requisition_item_id" gorm:"size:36;index"`
	JobCardRef         string          `json:"job_card_ref" gorm:"size:64"`
	OrderRef           string          `json:"order_ref" gorm:"size:64"`
	LengthUsedMM       decimal.Decimal `json:"length_used_mm" gorm:"type:decimal(14,3);not null"`
	WastageGeneratedMM decimal.Decimal `json:"wastage_generated_mm" gorm:"type:decimal(14,3);default:0"`
	RemainingLengthMM  decimal.Decimal `json:"remaining_length_mm" gorm:"type:decimal(14,3)"`
	Operator           string          `json:"operator" gorm:"size:64;not null"`
	UsedAt             time.Time       `json:"used_at" gorm:"not null;index"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (MaterialUsageHistory) TableName() string {
	return "mes_material_usage_history"
}
