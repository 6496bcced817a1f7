package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequisitionStatus 领料单状态
const (
	ReqStatusOpen      = "OPEN"
	ReqStatusPartial   = "PARTIAL"
	ReqStatusIssued    = "ISSUED"
	ReqStatusClosed    = "CLOSED"
	ReqStatusCancelled = "CANCELLED"
)

// MaterialRequisition 领料单：某生产工单对材料的需求
type MaterialRequisition struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ReqCode      string     `json:"req_code" gorm:"size:50;not null;uniqueIndex"`
	JobCardRef   string     `json:"job_card_ref" gorm:"size:64;index"` // 工单引用，外部系统
	OrderRef     string     `json:"order_ref" gorm:"size:64"`
	Priority     int        `json:"priority" gorm:"default:0"`
	DueDate      *time.Time `json:"due_date"`
	Status       string     `json:"status" gorm:"size:20;not null;default:OPEN;index"`
	Notes        string     `json:"notes" gorm:"type:text"`
	CreatedBy    string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`

	Items []MaterialRequisitionItem `json:"items,omitempty" gorm:"foreignKey:RequisitionID"`
}

func (MaterialRequisition) TableName() string {
	return "mes_material_requisitions"
}

// MaterialRequisitionItem 领料单行。
// 不变式：AllocatedQty >= IssuedQty；除非 AllowOverIssue，IssuedQty <= RequiredQty。
type MaterialRequisitionItem struct {
	ID             string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RequisitionID  string          `json:"requisition_id" gorm:"type:uuid;not null;index"`
	MaterialTypeID string          `json:"material_type_id" gorm:"type:uuid;not null;index"`
	RequiredQty    decimal.Decimal `json:"required_qty" gorm:"type:decimal(14,3);not null"` // 长度(mm)或重量(kg)，随材料单位
	AllocatedQty   decimal.Decimal `json:"allocated_qty" gorm:"type:decimal(14,3);default:0"`
	IssuedQty      decimal.Decimal `json:"issued_qty" gorm:"type:decimal(14,3);default:0"`
	AllowOverIssue bool            `json:"allow_over_issue" gorm:"default:false"`
	Notes          string          `json:"notes" gorm:"size:255"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	MaterialType *MaterialType `json:"material_type,omitempty" gorm:"foreignKey:MaterialTypeID"`
}

func (MaterialRequisitionItem) TableName() string {
	return "mes_material_requisition_items"
}

// PendingQty 未发数量（派生值，不落库）
func (i *MaterialRequisitionItem) PendingQty() decimal.Decimal {
	p := i.RequiredQty.Sub(i.IssuedQty)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}
