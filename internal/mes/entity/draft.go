package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftStatus 切割方案状态
const (
	DraftStatusDraft     = "DRAFT"
	DraftStatusIssued    = "ISSUED"
	DraftStatusCancelled = "CANCELLED"
)

// AllocationDraft 切割方案（发料窗口）：未确认的配料计划。
// 纯建议性质，不锁定料件；发料时以当时库存重新校验。
type AllocationDraft struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	DraftCode string     `json:"draft_code" gorm:"size:50;not null;uniqueIndex"`
	Status    string     `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	Notes     string     `json:"notes" gorm:"type:text"`
	CreatedBy string     `json:"created_by" gorm:"size:64;not null"`
	IssuedBy  string     `json:"issued_by" gorm:"size:64"`
	IssuedAt  *time.Time `json:"issued_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Bars []DraftBar `json:"bars,omitempty" gorm:"foreignKey:DraftID"`
}

func (AllocationDraft) TableName() string {
	return "mes_allocation_drafts"
}

// DraftBar 方案中一根料件的切割安排
type DraftBar struct {
	ID                   string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	DraftID              string          `json:"draft_id" gorm:"type:uuid;not null;index"`
	PieceID              string          `json:"piece_id" gorm:"type:uuid;not null;index"`
	LengthAtPlanMM       decimal.Decimal `json:"length_at_plan_mm" gorm:"type:decimal(14,3);not null"` // 计划时该料件剩余长度
	PredictedRemainderMM decimal.Decimal `json:"predicted_remainder_mm" gorm:"type:decimal(14,3)"`
	WillBeScrap          bool            `json:"will_be_scrap" gorm:"default:false"`
	CreatedAt            time.Time       `json:"created_at"`

	Piece *MaterialPiece `json:"piece,omitempty" gorm:"foreignKey:PieceID"`
	Cuts  []DraftCut     `json:"cuts,omitempty" gorm:"foreignKey:DraftBarID"`
}

func (DraftBar) TableName() string {
	return "mes_draft_bars"
}

// DraftCut 单刀切割：长度与去向（领料单行）
type DraftCut struct {
	ID                string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	DraftBarID        string          `json:"draft_bar_id" gorm:"type:uuid;not null;index"`
	RequisitionItemID string          `json:"requisition_item_id" gorm:"type:uuid;not null;index"`
	Seq               int             `json:"seq" gorm:"not null"` // 切割顺序
	LengthMM          decimal.Decimal `json:"length_mm" gorm:"type:decimal(14,3);not null"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (DraftCut) TableName() string {
	return "mes_draft_cuts"
}
