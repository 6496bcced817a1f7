package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// ReceiptService 收货闸口：差异超限的到货在台账入料前必须过审批。
type ReceiptService struct {
	repo         *repository.GRNRepository
	materialRepo *repository.MaterialRepository
	piece        *PieceService
	inventory    *InventoryService
	db           *gorm.DB
	locker       *redislock.Client
	policy       StockPolicy
	logger       *zap.Logger
}

func NewReceiptService(repo *repository.GRNRepository, materialRepo *repository.MaterialRepository, piece *PieceService, inventory *InventoryService, db *gorm.DB, locker *redislock.Client, policy StockPolicy, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{
		repo:         repo,
		materialRepo: materialRepo,
		piece:        piece,
		inventory:    inventory,
		db:           db,
		locker:       locker,
		policy:       policy,
		logger:       logger,
	}
}

type SubmitGRNLine struct {
	MaterialTypeID   string          `json:"material_type_id" binding:"required"`
	SupplierBatchNo  string          `json:"supplier_batch_no"`
	PieceCount       int             `json:"piece_count" binding:"required,gt=0"`
	DeclaredLengthMM decimal.Decimal `json:"declared_length_mm"` // 单件申报长度
	DeclaredWeightKG decimal.Decimal `json:"declared_weight_kg" binding:"required"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
}

type SubmitGRNRequest struct {
	SupplierID   string          `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	PORef        string          `json:"po_ref"`
	InvoiceNo    string          `json:"invoice_no"`
	ReceivedDate *time.Time      `json:"received_date"`
	Notes        string          `json:"notes"`
	Lines        []SubmitGRNLine `json:"lines" binding:"required,min=1"`
}

// GRNResult 提交结果：状态与逐行差异
type GRNResult struct {
	GRN            *entity.GRN             `json:"grn"`
	VarianceByLine map[string]string       `json:"variance_by_line"` // 行ID -> 差异百分比
	Pieces         []entity.MaterialPiece  `json:"pieces,omitempty"`
}

// calcLengthMM 由申报总重与材料密度推算总长：length = weight/(density*area)*10
func calcLengthMM(weightKG, densityGCM3, crossSectionCM2 decimal.Decimal) (decimal.Decimal, error) {
	if !densityGCM3.IsPositive() || !crossSectionCM2.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: 缺少密度或截面积", ErrValidation)
	}
	return weightKG.Div(densityGCM3.Mul(crossSectionCM2)).Mul(ten).Round(3), nil
}

// variancePct 申报与推算的相对偏差百分比
func variancePct(declared, calculated decimal.Decimal) decimal.Decimal {
	if calculated.IsZero() {
		return hundred
	}
	return declared.Sub(calculated).Abs().Div(calculated).Mul(hundred).Round(3)
}

// SubmitGRN 提交收货单。任一行差异超过阈值则整单转待审批、不建料件；
// 否则直接入账：建料件、记入库流水、重算库存汇总，单事务完成。
func (s *ReceiptService) SubmitGRN(req SubmitGRNRequest, userID string) (*GRNResult, error) {
	received := time.Now()
	if req.ReceivedDate != nil {
		received = *req.ReceivedDate
	}

	code := fmt.Sprintf("GRN-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000)
	grn := &entity.GRN{
		ID:           uuid.New().String(),
		GRNCode:      code,
		SupplierID:   req.SupplierID,
		SupplierName: req.SupplierName,
		PORef:        req.PORef,
		InvoiceNo:    req.InvoiceNo,
		ReceivedDate: received,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}

	materials := make(map[string]*entity.MaterialType)
	overThreshold := false
	varianceByLine := make(map[string]string)

	for _, l := range req.Lines {
		if l.PieceCount <= 0 || !l.DeclaredWeightKG.IsPositive() {
			return nil, fmt.Errorf("%w: 件数与申报重量必须为正", ErrValidation)
		}
		material, err := s.materialRepo.GetByID(l.MaterialTypeID)
		if err != nil {
			return nil, fmt.Errorf("%w: 材料 %s", ErrNotFound, l.MaterialTypeID)
		}
		materials[material.ID] = material

		calcLen, err := calcLengthMM(l.DeclaredWeightKG, material.DensityGCM3, material.CrossSectionCM2)
		if err != nil {
			return nil, err
		}
		// 未申报长度时按重量推算入账，没有可争议的申报值，差异记零
		v := decimal.Zero
		if l.DeclaredLengthMM.IsPositive() {
			declaredTotal := l.DeclaredLengthMM.Mul(decimal.NewFromInt(int64(l.PieceCount)))
			v = variancePct(declaredTotal, calcLen)
		}

		line := entity.GRNLine{
			ID:                 uuid.New().String(),
			GRNID:              grn.ID,
			MaterialTypeID:     l.MaterialTypeID,
			SupplierBatchNo:    l.SupplierBatchNo,
			PieceCount:         l.PieceCount,
			DeclaredLengthMM:   l.DeclaredLengthMM,
			DeclaredWeightKG:   l.DeclaredWeightKG,
			CalculatedLengthMM: calcLen,
			VariancePct:        v,
			UnitCost:           l.UnitCost,
		}
		grn.Lines = append(grn.Lines, line)
		varianceByLine[line.ID] = v.String()
		if v.GreaterThan(s.policy.VarianceThresholdPct) {
			overThreshold = true
		}
	}

	result := &GRNResult{GRN: grn, VarianceByLine: varianceByLine}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if overThreshold {
			// 待审批不是失败路径：正常落单，等待 ApproveGRN/RejectGRN
			grn.Status = entity.GRNStatusPendingApproval
			return s.repo.CreateTx(tx, grn)
		}
		grn.Status = entity.GRNStatusReceived
		if err := s.repo.CreateTx(tx, grn); err != nil {
			return err
		}
		pieces, err := s.createPiecesTx(tx, grn, materials, userID)
		if err != nil {
			return err
		}
		result.Pieces = pieces
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("提交收货单失败: %w", err)
	}

	if !overThreshold {
		for id := range materials {
			s.inventory.InvalidateCache(id)
		}
	}
	s.logger.Info("GRN submitted",
		zap.String("grn", grn.GRNCode),
		zap.String("status", grn.Status),
		zap.Int("lines", len(grn.Lines)))
	return result, nil
}

// createPiecesTx 逐行建料件并记入库流水，随后重算受影响材料的汇总
func (s *ReceiptService) createPiecesTx(tx *gorm.DB, grn *entity.GRN, materials map[string]*entity.MaterialType, actor string) ([]entity.MaterialPiece, error) {
	var all []entity.MaterialPiece
	seq := 1
	for i := range grn.Lines {
		line := &grn.Lines[i]
		material := materials[line.MaterialTypeID]
		if material == nil {
			m, err := s.materialRepo.GetByID(line.MaterialTypeID)
			if err != nil {
				return nil, fmt.Errorf("%w: 材料 %s", ErrNotFound, line.MaterialTypeID)
			}
			material = m
		}

		pieces, err := s.piece.CreatePiecesTx(tx, grn, line, material, seq, actor)
		if err != nil {
			return nil, err
		}
		seq += len(pieces)

		for _, p := range pieces {
			if err := s.inventory.RecordTransactionTx(tx, &entity.InventoryTransaction{
				MaterialTypeID:  p.MaterialTypeID,
				MaterialCode:    material.Code,
				TransactionType: entity.TxTypeStockIn,
				Quantity:        p.CurrentLengthMM,
				UnitCost:        p.UnitCost,
				PieceID:         p.ID,
				ReferenceType:   "GRN",
				ReferenceID:     grn.ID,
				CreatedBy:       actor,
			}); err != nil {
				return nil, err
			}
		}
		all = append(all, pieces...)
	}

	for id := range materialsOf(all) {
		if err := s.inventory.RecomputeTx(tx, id); err != nil {
			return nil, err
		}
	}
	return all, nil
}

func materialsOf(pieces []entity.MaterialPiece) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range pieces {
		set[p.MaterialTypeID] = struct{}{}
	}
	return set
}

// ApproveGRN 审批通过待审批收货单并建料件。
// 幂等：重复审批已入账的收货单返回既有料件，不重复建账。
func (s *ReceiptService) ApproveGRN(ctx context.Context, id, approver, notes string) ([]entity.MaterialPiece, error) {
	release, err := s.obtainLock(ctx, "grn:"+id)
	if err != nil {
		return nil, err
	}
	defer release()

	var pieces []entity.MaterialPiece
	var materialIDs map[string]struct{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		grn, err := s.repo.GetByIDForUpdate(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 收货单 %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}

		switch grn.Status {
		case entity.GRNStatusReceived:
			// 幂等：返回既有料件
			existing, err := s.listPiecesTx(tx, grn.ID)
			if err != nil {
				return err
			}
			pieces = existing
			return nil
		case entity.GRNStatusRejected:
			return fmt.Errorf("%w: 收货单 %s 已拒收", ErrAlreadyResolved, grn.GRNCode)
		}

		now := time.Now()
		grn.Status = entity.GRNStatusReceived
		grn.ApprovedBy = approver
		grn.ApprovedAt = &now
		grn.ApprovalNotes = notes
		if err := s.repo.UpdateTx(tx, grn); err != nil {
			return err
		}

		created, err := s.createPiecesTx(tx, grn, nil, approver)
		if err != nil {
			return err
		}
		pieces = created
		materialIDs = materialsOf(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for id := range materialIDs {
		s.inventory.InvalidateCache(id)
	}
	s.logger.Info("GRN approved", zap.String("grn_id", id), zap.String("approver", approver), zap.Int("pieces", len(pieces)))
	return pieces, nil
}

// RejectGRN 拒收待审批收货单；对已入账的收货单返回冲突。
func (s *ReceiptService) RejectGRN(ctx context.Context, id, approver, reason string) error {
	release, err := s.obtainLock(ctx, "grn:"+id)
	if err != nil {
		return err
	}
	defer release()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		grn, err := s.repo.GetByIDForUpdate(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 收货单 %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}

		switch grn.Status {
		case entity.GRNStatusRejected:
			// 幂等
			return nil
		case entity.GRNStatusReceived:
			return fmt.Errorf("%w: 收货单 %s 已入账", ErrAlreadyResolved, grn.GRNCode)
		}

		now := time.Now()
		grn.Status = entity.GRNStatusRejected
		grn.ApprovedBy = approver
		grn.ApprovedAt = &now
		grn.ApprovalNotes = reason
		return s.repo.UpdateTx(tx, grn)
	})
	if err != nil {
		return err
	}
	s.logger.Info("GRN rejected", zap.String("grn_id", id), zap.String("approver", approver))
	return nil
}

func (s *ReceiptService) listPiecesTx(tx *gorm.DB, grnID string) ([]entity.MaterialPiece, error) {
	var pieces []entity.MaterialPiece
	err := tx.Where("grn_id = ?", grnID).Order("piece_number ASC").Find(&pieces).Error
	return pieces, err
}

// obtainLock 跨实例串行化同一收货单的审批。redis 未配置时为空操作，
// 此时靠事务内行锁保证单实例下的先写者胜出。
func (s *ReceiptService) obtainLock(ctx context.Context, key string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	lock, err := s.locker.Obtain(ctx, key, s.policy.IssueLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), int(s.policy.IssueLockWait/(100*time.Millisecond))),
	})
	if err == redislock.ErrNotObtained {
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
	}
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}

func (s *ReceiptService) GetByID(id string) (*entity.GRN, error) {
	grn, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 收货单 %s", ErrNotFound, id)
	}
	return grn, err
}

func (s *ReceiptService) List(params repository.GRNListParams) ([]entity.GRN, int64, error) {
	return s.repo.List(params)
}

// ListPieces 收货单名下全部料件
func (s *ReceiptService) ListPieces(grnID string) ([]entity.MaterialPiece, error) {
	return s.listPiecesTx(s.db, grnID)
}
