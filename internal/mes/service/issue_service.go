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

// IssueService 发料执行器：把确认后的切割方案原子地落到台账上。
// 料件长度的唯一修改入口（对账除外）。整单要么全部成功要么全部回滚。
type IssueService struct {
	draftRepo    *repository.DraftRepository
	pieceRepo    *repository.PieceRepository
	reqRepo      *repository.RequisitionRepository
	allocRepo    *repository.AllocationRepository
	usageRepo    *repository.UsageRepository
	piece        *PieceService
	inventory    *InventoryService
	db           *gorm.DB
	locker       *redislock.Client
	lockMgr      *LockManager
	policy       StockPolicy
	logger       *zap.Logger
}

func NewIssueService(draftRepo *repository.DraftRepository, pieceRepo *repository.PieceRepository, reqRepo *repository.RequisitionRepository, allocRepo *repository.AllocationRepository, usageRepo *repository.UsageRepository, piece *PieceService, inventory *InventoryService, db *gorm.DB, locker *redislock.Client, lockMgr *LockManager, policy StockPolicy, logger *zap.Logger) *IssueService {
	return &IssueService{
		draftRepo: draftRepo,
		pieceRepo: pieceRepo,
		reqRepo:   reqRepo,
		allocRepo: allocRepo,
		usageRepo: usageRepo,
		piece:     piece,
		inventory: inventory,
		db:        db,
		locker:    locker,
		lockMgr:   lockMgr,
		policy:    policy,
		logger:    logger,
	}
}

// IssueResult 发料结果
type IssueResult struct {
	Draft        *entity.AllocationDraft       `json:"draft"`
	Allocations  []entity.MaterialAllocation   `json:"allocations"`
	UsageRecords []entity.MaterialUsageHistory `json:"usage_records"`
}

// Issue 执行发料。流程：
//  1. 按 piece id 升序取进程内锁（有界等待），redis 可用时再加方案级分布式锁；
//  2. 事务内行锁重读料件，任一切割装不下即整单失败（并发消耗在先）；
//  3. 逐刀缩短料件、记使用历史、落分配记录、记出库流水；
//  4. 更新领料单行已发数量，重算受影响材料的库存汇总，方案转 ISSUED。
func (s *IssueService) Issue(ctx context.Context, draftID, userID string) (*IssueResult, error) {
	head, err := s.draftRepo.GetByID(draftID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 切割方案 %s", ErrNotFound, draftID)
	}
	if err != nil {
		return nil, err
	}
	if head.Status != entity.DraftStatusDraft {
		return nil, fmt.Errorf("%w: 当前状态 %s", ErrDraftNotOpen, head.Status)
	}

	// 固定顺序加锁，避免共享料件的方案互相死锁
	pieceIDs := make([]string, 0, len(head.Bars))
	for _, bar := range head.Bars {
		pieceIDs = append(pieceIDs, bar.PieceID)
	}
	release, err := s.lockMgr.AcquireAll(ctx, pieceIDs, s.policy.IssueLockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, "issue-draft:"+draftID, s.policy.IssueLockTTL, nil)
		if err == redislock.ErrNotObtained {
			return nil, fmt.Errorf("%w: issue-draft:%s", ErrLockTimeout, draftID)
		}
		if err != nil {
			return nil, err
		}
		defer func() { _ = lock.Release(context.Background()) }()
	}

	result := &IssueResult{}
	materialIDs := make(map[string]struct{})

	err = s.db.Transaction(func(tx *gorm.DB) error {
		draft, err := s.draftRepo.GetByIDForUpdate(tx, draftID)
		if err != nil {
			return err
		}
		if draft.Status != entity.DraftStatusDraft {
			return fmt.Errorf("%w: 当前状态 %s", ErrDraftNotOpen, draft.Status)
		}

		now := time.Now()
		for i := range draft.Bars {
			bar := &draft.Bars[i]

			piece, err := s.pieceRepo.GetByIDForUpdate(tx, bar.PieceID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: 料件 %s", ErrNotFound, bar.PieceID)
			}
			if err != nil {
				return err
			}
			material, err := s.materialOf(tx, piece.MaterialTypeID)
			if err != nil {
				return err
			}
			materialIDs[piece.MaterialTypeID] = struct{}{}

			// 重校验：计划后别的方案可能已消耗该料件
			total := decimal.Zero
			for _, cut := range bar.Cuts {
				total = total.Add(cut.LengthMM)
			}
			if piece.Status != entity.PieceStatusAvailable || total.GreaterThan(piece.CurrentLengthMM) {
				return fmt.Errorf("%w: 料件 %s 剩余 %s mm，方案需要 %s mm",
					ErrConcurrentModification, piece.PieceNumber, piece.CurrentLengthMM, total)
			}

			// 进入发料状态机：AVAILABLE -> ALLOCATED -> ISSUED
			for _, next := range []string{entity.PieceStatusAllocated, entity.PieceStatusIssued} {
				if !entity.CanTransitionPiece(piece.Status, next) {
					return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, piece.Status, next)
				}
				piece.Status = next
			}

			for ci, cut := range bar.Cuts {
				item, err := s.reqRepo.GetItemForUpdate(tx, cut.RequisitionItemID)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: 领料单行 %s", ErrNotFound, cut.RequisitionItemID)
				}
				if err != nil {
					return err
				}

				newIssued := item.IssuedQty.Add(cut.LengthMM)
				if !item.AllowOverIssue && newIssued.GreaterThan(item.RequiredQty) {
					return fmt.Errorf("%w: 行 %s 需求 %s，累计发料 %s",
						ErrOverAllocation, item.ID, item.RequiredQty, newIssued)
				}

				wastage, err := s.piece.ReduceLengthTx(tx, piece, cut.LengthMM, material, ci == len(bar.Cuts)-1)
				if err != nil {
					return err
				}

				req, err := s.requisitionOf(tx, item.RequisitionID)
				if err != nil {
					return err
				}

				usage := entity.MaterialUsageHistory{
					ID:                 uuid.New().String(),
					PieceID:            piece.ID,
					PieceNumber:        piece.PieceNumber,
					MaterialTypeID:     piece.MaterialTypeID,
					RequisitionItemID:  item.ID,
					JobCardRef:         req.JobCardRef,
					OrderRef:           req.OrderRef,
					LengthUsedMM:       cut.LengthMM,
					WastageGeneratedMM: wastage,
					RemainingLengthMM:  piece.CurrentLengthMM,
					Operator:           userID,
					UsedAt:             now,
				}
				if err := s.usageRepo.CreateTx(tx, &usage); err != nil {
					return err
				}

				weight := decimal.Zero
				if piece.OriginalLengthMM.IsPositive() {
					weight = piece.OriginalWeightKG.Mul(cut.LengthMM).Div(piece.OriginalLengthMM).Round(3)
				}
				alloc := entity.MaterialAllocation{
					ID:                uuid.New().String(),
					RequisitionItemID: item.ID,
					PieceID:           piece.ID,
					DraftID:           draft.ID,
					AllocatedLengthMM: cut.LengthMM,
					AllocatedWeightKG: weight,
					RemainingAfterMM:  piece.CurrentLengthMM,
					IsIssued:          true,
					IssuedBy:          userID,
					IssuedAt:          &now,
				}
				if err := s.allocRepo.CreateTx(tx, &alloc); err != nil {
					return err
				}

				if err := s.inventory.RecordTransactionTx(tx, &entity.InventoryTransaction{
					MaterialTypeID:  piece.MaterialTypeID,
					MaterialCode:    material.Code,
					TransactionType: entity.TxTypeStockOut,
					Quantity:        cut.LengthMM.Neg(),
					PieceID:         piece.ID,
					ReferenceType:   "DRAFT",
					ReferenceID:     draft.ID,
					CreatedBy:       userID,
				}); err != nil {
					return err
				}
				if wastage.IsPositive() {
					if err := s.inventory.RecordTransactionTx(tx, &entity.InventoryTransaction{
						MaterialTypeID:  piece.MaterialTypeID,
						MaterialCode:    material.Code,
						TransactionType: entity.TxTypeScrap,
						Quantity:        wastage.Neg(),
						PieceID:         piece.ID,
						ReferenceType:   "DRAFT",
						ReferenceID:     draft.ID,
						Reason:          "切割余料低于最小可用长度",
						CreatedBy:       userID,
					}); err != nil {
						return err
					}
				}

				item.IssuedQty = newIssued
				if item.AllocatedQty.LessThan(newIssued) {
					item.AllocatedQty = newIssued
				}
				if err := s.reqRepo.UpdateItemTx(tx, item); err != nil {
					return err
				}
				if err := s.refreshRequisitionStatusTx(tx, item.RequisitionID); err != nil {
					return err
				}

				result.Allocations = append(result.Allocations, alloc)
				result.UsageRecords = append(result.UsageRecords, usage)
			}

			if err := s.pieceRepo.UpdateTx(tx, piece); err != nil {
				return err
			}
		}

		for id := range materialIDs {
			if err := s.inventory.RecomputeTx(tx, id); err != nil {
				return err
			}
		}

		draft.Status = entity.DraftStatusIssued
		draft.IssuedBy = userID
		draft.IssuedAt = &now
		if err := s.draftRepo.UpdateTx(tx, draft); err != nil {
			return err
		}
		result.Draft = draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	for id := range materialIDs {
		s.inventory.InvalidateCache(id)
	}
	s.logger.Info("draft issued",
		zap.String("draft", result.Draft.DraftCode),
		zap.Int("allocations", len(result.Allocations)),
		zap.String("issuer", userID))
	return result, nil
}

// materialOf 事务内读材料主数据（报废阈值与流水留痕需要）
func (s *IssueService) materialOf(tx *gorm.DB, materialTypeID string) (*entity.MaterialType, error) {
	var m entity.MaterialType
	if err := tx.Where("id = ?", materialTypeID).First(&m).Error; err != nil {
		return nil, fmt.Errorf("%w: 材料 %s", ErrNotFound, materialTypeID)
	}
	return &m, nil
}

func (s *IssueService) requisitionOf(tx *gorm.DB, reqID string) (*entity.MaterialRequisition, error) {
	var r entity.MaterialRequisition
	if err := tx.Where("id = ?", reqID).First(&r).Error; err != nil {
		return nil, fmt.Errorf("%w: 领料单 %s", ErrNotFound, reqID)
	}
	return &r, nil
}

// refreshRequisitionStatusTx 按各行完成度刷新领料单状态
func (s *IssueService) refreshRequisitionStatusTx(tx *gorm.DB, reqID string) error {
	var items []entity.MaterialRequisitionItem
	if err := tx.Where("requisition_id = ?", reqID).Find(&items).Error; err != nil {
		return err
	}
	allDone := true
	anyIssued := false
	for _, it := range items {
		if it.IssuedQty.IsPositive() {
			anyIssued = true
		}
		if it.PendingQty().IsPositive() {
			allDone = false
		}
	}
	status := entity.ReqStatusOpen
	if allDone {
		status = entity.ReqStatusIssued
	} else if anyIssued {
		status = entity.ReqStatusPartial
	}
	return tx.Model(&entity.MaterialRequisition{}).Where("id = ?", reqID).
		Update("status", status).Error
}
