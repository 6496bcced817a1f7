package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialShape 原材料截面形状
const (
	ShapeRound = "ROUND" // 圆棒
	ShapePipe  = "PIPE"  // 管材
	ShapeSheet = "SHEET" // 板材
	ShapeFlat  = "FLAT"  // 扁钢
)

// MaterialUnit 库存计量单位
const (
	UnitMM  = "MM"  // 按长度管理（棒材/管材）
	UnitKG  = "KG"  // 按重量管理（板材）
	UnitPCS = "PCS" // 按件管理
)

// MaterialType 材料主数据（牌号+形状+规格唯一确定一种材料）
type MaterialType struct {
	ID                string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code              string          `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name              string          `json:"name" gorm:"size:128;not null"`
	Grade             string          `json:"grade" gorm:"size:64"` // 材质牌号，如 EN8, SS304
	Shape             string          `json:"shape" gorm:"size:10;not null;default:ROUND"`
	DiameterMM        decimal.Decimal `json:"diameter_mm" gorm:"type:decimal(14,3);default:0"`
	WallThicknessMM   decimal.Decimal `json:"wall_thickness_mm" gorm:"type:decimal(14,3);default:0"`
	DensityGCM3       decimal.Decimal `json:"density_g_cm3" gorm:"type:decimal(14,4);default:0"`
	CrossSectionCM2   decimal.Decimal `json:"cross_section_cm2" gorm:"type:decimal(14,4);default:0"`
	Unit              string          `json:"unit" gorm:"size:10;not null;default:MM"`
	ReorderLevel      decimal.Decimal `json:"reorder_level" gorm:"type:decimal(14,3);default:0"`
	MinUsableLengthMM decimal.Decimal `json:"min_usable_length_mm" gorm:"type:decimal(14,3);default:0"` // 0=使用全局报废阈值
	UnitCost          decimal.Decimal `json:"unit_cost" gorm:"type:decimal(14,4);default:0"`
	IsActive          bool            `json:"is_active" gorm:"default:true"`
	CreatedBy         string          `json:"created_by" gorm:"size:64"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         *time.Time      `json:"deleted_at" gorm:"index"`
}

func (MaterialType) TableName() string {
	return "mes_material_types"
}
