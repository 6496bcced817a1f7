package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ten = decimal.NewFromInt(10)

// PieceService 料件台账：物理料件的唯一归口。
// 料件只由收货审批创建，只由发料执行器或对账缩短，永不删除。
type PieceService struct {
	repo      *repository.PieceRepository
	usageRepo *repository.UsageRepository
	inventory *InventoryService
	db        *gorm.DB
	policy    StockPolicy
	logger    *zap.Logger
}

func NewPieceService(repo *repository.PieceRepository, usageRepo *repository.UsageRepository, inventory *InventoryService, db *gorm.DB, policy StockPolicy, logger *zap.Logger) *PieceService {
	return &PieceService{repo: repo, usageRepo: usageRepo, inventory: inventory, db: db, policy: policy, logger: logger}
}

func (s *PieceService) GetByID(id string) (*entity.MaterialPiece, error) {
	p, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 料件 %s", ErrNotFound, id)
	}
	return p, err
}

// GetAvailable 可用料件，按收货时间先进先出、长料优先
func (s *PieceService) GetAvailable(materialTypeID string) ([]entity.MaterialPiece, error) {
	return s.repo.GetAvailable(materialTypeID)
}

func (s *PieceService) List(params repository.PieceListParams) ([]entity.MaterialPiece, int64, error) {
	return s.repo.List(params)
}

// MinUsableFor 材料级报废阈值，未配置时用全局值
func (s *PieceService) MinUsableFor(m *entity.MaterialType) decimal.Decimal {
	if m != nil && m.MinUsableLengthMM.IsPositive() {
		return m.MinUsableLengthMM
	}
	return s.policy.MinUsableLengthMM
}

// pieceDims 单件长度与重量。单件长度缺省时由申报重量和材料密度推算。
func pieceDims(line *entity.GRNLine, material *entity.MaterialType) (lengthMM, weightKG decimal.Decimal, err error) {
	if line.PieceCount <= 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: 件数必须为正", ErrValidation)
	}
	count := decimal.NewFromInt(int64(line.PieceCount))
	if !line.DeclaredWeightKG.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: 申报重量必须为正", ErrValidation)
	}
	weightKG = line.DeclaredWeightKG.Div(count).Round(3)

	if line.DeclaredLengthMM.IsPositive() {
		lengthMM = line.DeclaredLengthMM
	} else {
		if !material.DensityGCM3.IsPositive() || !material.CrossSectionCM2.IsPositive() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: 材料 %s 缺少密度或截面积，无法由重量推算长度", ErrValidation, material.Code)
		}
		lengthMM = weightKG.Div(material.DensityGCM3.Mul(material.CrossSectionCM2)).Mul(ten).Round(3)
	}
	if !lengthMM.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: 推算长度非正", ErrValidation)
	}
	return lengthMM, weightKG, nil
}

// CreatePiecesTx 收货审批通过后在事务内落台账。
// current = original，状态 AVAILABLE；编号 <GRN号>-P<序号>。
func (s *PieceService) CreatePiecesTx(tx *gorm.DB, grn *entity.GRN, line *entity.GRNLine, material *entity.MaterialType, seqStart int, actor string) ([]entity.MaterialPiece, error) {
	lengthMM, weightKG, err := pieceDims(line, material)
	if err != nil {
		return nil, err
	}

	pieces := make([]entity.MaterialPiece, 0, line.PieceCount)
	for i := 0; i < line.PieceCount; i++ {
		pieces = append(pieces, entity.MaterialPiece{
			ID:               uuid.New().String(),
			PieceNumber:      fmt.Sprintf("%s-P%03d", grn.GRNCode, seqStart+i),
			MaterialTypeID:   line.MaterialTypeID,
			GRNID:            grn.ID,
			GRNLineID:        line.ID,
			SupplierBatchNo:  line.SupplierBatchNo,
			OriginalLengthMM: lengthMM,
			CurrentLengthMM:  lengthMM,
			OriginalWeightKG: weightKG,
			CurrentWeightKG:  weightKG,
			UnitCost:         line.UnitCost,
			Status:           entity.PieceStatusAvailable,
			ReceivedAt:       grn.ReceivedDate,
			CreatedBy:        actor,
		})
	}
	if err := s.repo.CreateTx(tx, pieces); err != nil {
		return nil, fmt.Errorf("创建料件失败: %w", err)
	}
	return pieces, nil
}

// ReduceLengthTx 在事务内缩短料件，重量按长度等比折算。
// 余料为零转 CONSUMED；final 为真且余料低于报废阈值时整段余料计为报废并转
// SCRAP，返回本次产生的报废长度供使用记录留痕。同一根料还有后续切割时
// final 必须为假，否则中间余料会被提前报废。
func (s *PieceService) ReduceLengthTx(tx *gorm.DB, piece *entity.MaterialPiece, cutMM decimal.Decimal, material *entity.MaterialType, final bool) (decimal.Decimal, error) {
	if !cutMM.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: 切割长度必须为正", ErrValidation)
	}
	if cutMM.GreaterThan(piece.CurrentLengthMM) {
		return decimal.Zero, fmt.Errorf("%w: 料件 %s 剩余 %s mm，需求 %s mm",
			ErrInsufficientLength, piece.PieceNumber, piece.CurrentLengthMM, cutMM)
	}

	remainder := piece.CurrentLengthMM.Sub(cutMM)
	wastage := decimal.Zero
	minUsable := s.MinUsableFor(material)

	switch {
	case remainder.IsZero():
		if !entity.CanTransitionPiece(piece.Status, entity.PieceStatusConsumed) {
			return decimal.Zero, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, piece.Status, entity.PieceStatusConsumed)
		}
		piece.Status = entity.PieceStatusConsumed
	case final && remainder.LessThan(minUsable):
		if !entity.CanTransitionPiece(piece.Status, entity.PieceStatusScrap) {
			return decimal.Zero, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, piece.Status, entity.PieceStatusScrap)
		}
		wastage = remainder
		remainder = decimal.Zero
		piece.Status = entity.PieceStatusScrap
		piece.IsWastage = true
		piece.WastageReason = fmt.Sprintf("余料低于最小可用长度 %s mm", minUsable)
	}

	piece.CurrentLengthMM = remainder
	if piece.OriginalLengthMM.IsPositive() {
		piece.CurrentWeightKG = piece.OriginalWeightKG.Mul(remainder).Div(piece.OriginalLengthMM).Round(3)
	}
	if err := s.repo.UpdateTx(tx, piece); err != nil {
		return decimal.Zero, fmt.Errorf("更新料件失败: %w", err)
	}
	return wastage, nil
}

// MarkStatus 状态机守护下的显式状态迁移（写报废、退料复用等）。
// 影响库存口径的迁移同事务重算汇总并记流水。
func (s *PieceService) MarkStatus(id, newStatus, actor, reason string) (*entity.MaterialPiece, error) {
	var piece *entity.MaterialPiece
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := s.repo.GetByIDForUpdate(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 料件 %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		if !entity.CanTransitionPiece(p.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, newStatus)
		}
		p.Status = newStatus

		switch newStatus {
		case entity.PieceStatusScrap:
			// 显式写报废：剩余长度全部计为报废并出账
			if p.CurrentLengthMM.IsPositive() {
				if err := s.usageRepo.CreateTx(tx, &entity.MaterialUsageHistory{
					ID:                 uuid.New().String(),
					PieceID:            p.ID,
					PieceNumber:        p.PieceNumber,
					MaterialTypeID:     p.MaterialTypeID,
					LengthUsedMM:       decimal.Zero,
					WastageGeneratedMM: p.CurrentLengthMM,
					RemainingLengthMM:  decimal.Zero,
					Operator:           actor,
					UsedAt:             time.Now(),
				}); err != nil {
					return err
				}
				if err := s.inventory.RecordTransactionTx(tx, &entity.InventoryTransaction{
					MaterialTypeID:  p.MaterialTypeID,
					TransactionType: entity.TxTypeScrap,
					Quantity:        p.CurrentLengthMM.Neg(),
					PieceID:         p.ID,
					ReferenceType:   "PIECE",
					ReferenceID:     p.ID,
					Reason:          reason,
					CreatedBy:       actor,
				}); err != nil {
					return err
				}
				p.CurrentLengthMM = decimal.Zero
				p.CurrentWeightKG = decimal.Zero
			}
			p.IsWastage = true
			p.WastageReason = reason
		case entity.PieceStatusRejected:
			// 质检拒收：退出库存口径，料件本身完好
			if err := s.inventory.RecordTransactionTx(tx, &entity.InventoryTransaction{
				MaterialTypeID:  p.MaterialTypeID,
				TransactionType: entity.TxTypeStockOut,
				Quantity:        p.CurrentLengthMM.Neg(),
				PieceID:         p.ID,
				ReferenceType:   "PIECE",
				ReferenceID:     p.ID,
				Reason:          reason,
				CreatedBy:       actor,
			}); err != nil {
				return err
			}
		}
		// RETURNED 及 RETURNED->AVAILABLE 不产生流水：料件始终在非终态口径内，
		// 总量不变，只有可用/占用的分桶变化，由下面的重算覆盖。

		if err := s.repo.UpdateTx(tx, p); err != nil {
			return err
		}
		if err := s.inventory.RecomputeTx(tx, p.MaterialTypeID); err != nil {
			return err
		}
		piece = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.inventory.InvalidateCache(piece.MaterialTypeID)
	s.logger.Info("piece status changed",
		zap.String("piece", piece.PieceNumber),
		zap.String("status", piece.Status),
		zap.String("actor", actor))
	return piece, nil
}

// VerifyConservation 守恒校验：original == current + Σ已用 + Σ报废
func (s *PieceService) VerifyConservation(pieceID string) (bool, error) {
	p, err := s.GetByID(pieceID)
	if err != nil {
		return false, err
	}
	used, wastage, err := s.usageRepo.SumUsedByPiece(s.db, pieceID)
	if err != nil {
		return false, err
	}
	return p.OriginalLengthMM.Equal(p.CurrentLengthMM.Add(used).Add(wastage)), nil
}
