package repository

import (
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PieceRepository struct {
	db *gorm.DB
}

func NewPieceRepository(db *gorm.DB) *PieceRepository {
	return &PieceRepository{db: db}
}

func (r *PieceRepository) CreateTx(tx *gorm.DB, pieces []entity.MaterialPiece) error {
	return tx.Create(&pieces).Error
}

func (r *PieceRepository) GetByID(id string) (*entity.MaterialPiece, error) {
	var p entity.MaterialPiece
	err := r.db.Preload("MaterialType").Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *PieceRepository) GetByNumber(pieceNumber string) (*entity.MaterialPiece, error) {
	var p entity.MaterialPiece
	err := r.db.Where("piece_number = ?", pieceNumber).First(&p).Error
	return &p, err
}

// GetByIDForUpdate 事务内行锁读取，发料路径专用
func (r *PieceRepository) GetByIDForUpdate(tx *gorm.DB, id string) (*entity.MaterialPiece, error) {
	var p entity.MaterialPiece
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&p).Error
	return &p, err
}

// GetAvailable 可用料件，先进先出、同批次长料优先（默认配料顺序）
func (r *PieceRepository) GetAvailable(materialTypeID string) ([]entity.MaterialPiece, error) {
	var pieces []entity.MaterialPiece
	err := r.db.Where("material_type_id = ? AND status = ?", materialTypeID, entity.PieceStatusAvailable).
		Order("received_at ASC, current_length_mm DESC").
		Find(&pieces).Error
	return pieces, err
}

func (r *PieceRepository) ListByGRN(grnID string) ([]entity.MaterialPiece, error) {
	var pieces []entity.MaterialPiece
	err := r.db.Where("grn_id = ?", grnID).Order("piece_number ASC").Find(&pieces).Error
	return pieces, err
}

func (r *PieceRepository) UpdateTx(tx *gorm.DB, p *entity.MaterialPiece) error {
	return tx.Save(p).Error
}

func (r *PieceRepository) Update(p *entity.MaterialPiece) error {
	return r.db.Save(p).Error
}

type PieceListParams struct {
	MaterialTypeID string
	GRNID          string
	Status         string
	Keyword        string
	Page           int
	Size           int
}

func (r *PieceRepository) List(params PieceListParams) ([]entity.MaterialPiece, int64, error) {
	query := r.db.Model(&entity.MaterialPiece{})
	if params.MaterialTypeID != "" {
		query = query.Where("material_type_id = ?", params.MaterialTypeID)
	}
	if params.GRNID != "" {
		query = query.Where("grn_id = ?", params.GRNID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("piece_number ILIKE ? OR supplier_batch_no ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var pieces []entity.MaterialPiece
	err := query.Preload("MaterialType").Order("received_at ASC, piece_number ASC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&pieces).Error
	return pieces, total, err
}

// DB 返回底层db用于事务
func (r *PieceRepository) DB() *gorm.DB {
	return r.db
}
