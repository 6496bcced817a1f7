package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// GRNStatus 收货单状态
const (
	GRNStatusReceived        = "RECEIVED"         // 已收货入账
	GRNStatusPendingApproval = "PENDING_APPROVAL" // 差异超限，待审批
	GRNStatusRejected        = "REJECTED"         // 审批拒收（终态）
)

// GRN 收货单（Goods Receipt Note），料件入账前的到货声明
type GRN struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	GRNCode       string     `json:"grn_code" gorm:"size:50;not null;uniqueIndex"`
	SupplierID    string     `json:"supplier_id" gorm:"size:64"`
	SupplierName  string     `json:"supplier_name" gorm:"size:128"`
	PORef         string     `json:"po_ref" gorm:"size:64"` // 采购订单号，外部系统引用
	InvoiceNo     string     `json:"invoice_no" gorm:"size:64"`
	Status        string     `json:"status" gorm:"size:20;not null;index"`
	ReceivedDate  time.Time  `json:"received_date" gorm:"not null"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:64;not null"`
	ApprovedBy    string     `json:"approved_by" gorm:"size:64"`
	ApprovedAt    *time.Time `json:"approved_at"`
	ApprovalNotes string     `json:"approval_notes" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Lines []GRNLine `json:"lines,omitempty" gorm:"foreignKey:GRNID"`
}

func (GRN) TableName() string {
	return "mes_grns"
}

// GRNLine 收货单行。计算长度由申报重量与材料密度推得，
// 与申报长度（件数×单件长度）的偏差超过阈值时整单转入待审批。
type GRNLine struct {
	ID                 string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	GRNID              string          `json:"grn_id" gorm:"type:uuid;not null;index"`
	MaterialTypeID     string          `json:"material_type_id" gorm:"type:uuid;not null;index"`
	SupplierBatchNo    string          `json:"supplier_batch_no" gorm:"size:64"`
	PieceCount         int             `json:"piece_count" gorm:"not null"`
	DeclaredLengthMM   decimal.Decimal `json:"declared_length_mm" gorm:"type:decimal(14,3)"` // 单件申报长度
	DeclaredWeightKG   decimal.Decimal `json:"declared_weight_kg" gorm:"type:decimal(14,3);not null"`
	CalculatedLengthMM decimal.Decimal `json:"calculated_length_mm" gorm:"type:decimal(14,3)"`
	VariancePct        decimal.Decimal `json:"variance_pct" gorm:"type:decimal(8,3)"`
	UnitCost           decimal.Decimal `json:"unit_cost" gorm:"type:decimal(14,4);default:0"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	MaterialType *MaterialType `json:"material_type,omitempty" gorm:"foreignKey:MaterialTypeID"`
}

func (GRNLine) TableName() string {
	return "mes_grn_lines"
}
