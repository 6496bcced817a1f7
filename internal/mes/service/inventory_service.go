package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryService 库存汇总与流水。汇总行是物化视图，
// 事实来源永远是流水与料件台账，每次变动后全量重算。
type InventoryService struct {
	invRepo      *repository.InventoryRepository
	materialRepo *repository.MaterialRepository
	allocRepo    *repository.AllocationRepository
	rdb          *redis.Client
	policy       StockPolicy
	logger       *zap.Logger
}

func NewInventoryService(invRepo *repository.InventoryRepository, materialRepo *repository.MaterialRepository, allocRepo *repository.AllocationRepository, rdb *redis.Client, policy StockPolicy, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		invRepo:      invRepo,
		materialRepo: materialRepo,
		allocRepo:    allocRepo,
		rdb:          rdb,
		policy:       policy,
		logger:       logger,
	}
}

// RecordTransactionTx 追加一条库存流水
func (s *InventoryService) RecordTransactionTx(tx *gorm.DB, t *entity.InventoryTransaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return s.invRepo.CreateTransactionTx(tx, t)
}

// RecomputeTx 由流水和料件台账重建某材料的汇总行。
// 总量取流水净额，可用/已配取料件按状态汇总，已发取分配记录。
func (s *InventoryService) RecomputeTx(tx *gorm.DB, materialTypeID string) error {
	material, err := s.materialRepo.GetByID(materialTypeID)
	if err != nil {
		return fmt.Errorf("%w: 材料 %s", ErrNotFound, materialTypeID)
	}

	total, err := s.invRepo.SumTransactions(tx, materialTypeID)
	if err != nil {
		return err
	}
	available, err := s.invRepo.SumPiecesByStatus(tx, materialTypeID,
		[]string{entity.PieceStatusAvailable})
	if err != nil {
		return err
	}
	allocated, err := s.invRepo.SumPiecesByStatus(tx, materialTypeID,
		[]string{entity.PieceStatusAllocated})
	if err != nil {
		return err
	}
	issued, err := s.allocRepo.SumIssuedByMaterial(tx, materialTypeID)
	if err != nil {
		return err
	}
	avgCost, err := s.invRepo.AvgStockInCost(tx, materialTypeID)
	if err != nil {
		return err
	}

	now := time.Now()
	inv := &entity.Inventory{
		ID:             uuid.New().String(),
		MaterialTypeID: materialTypeID,
		TotalQty:       total,
		AvailableQty:   available,
		AllocatedQty:   allocated,
		IssuedQty:      issued,
		AvgUnitCost:    avgCost,
		IsOutOfStock:   !available.IsPositive(),
		LastMovedAt:    &now,
	}
	if material.ReorderLevel.IsPositive() {
		inv.IsLowStock = available.LessThanOrEqual(material.ReorderLevel)
	}
	return s.invRepo.UpsertTx(tx, inv)
}

func (s *InventoryService) cacheKey(materialTypeID string) string {
	return "mes:stock:" + materialTypeID
}

// InvalidateCache 库存变动提交后清缓存（缓存丢失只影响读路径，失败仅记日志）
func (s *InventoryService) InvalidateCache(materialTypeID string) {
	if s.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.rdb.Del(ctx, s.cacheKey(materialTypeID)).Err(); err != nil {
		s.logger.Warn("stock cache invalidation failed",
			zap.String("material", materialTypeID), zap.Error(err))
	}
}

// GetStock 读库存汇总，redis 可用时走旁路缓存
func (s *InventoryService) GetStock(ctx context.Context, materialTypeID string) (*entity.Inventory, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, s.cacheKey(materialTypeID)).Result(); err == nil {
			var inv entity.Inventory
			if json.Unmarshal([]byte(raw), &inv) == nil {
				return &inv, nil
			}
		}
	}

	inv, err := s.invRepo.GetByMaterial(materialTypeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 从未有过动账的材料视为零库存
		if _, merr := s.materialRepo.GetByID(materialTypeID); merr != nil {
			return nil, fmt.Errorf("%w: 材料 %s", ErrNotFound, materialTypeID)
		}
		return &entity.Inventory{MaterialTypeID: materialTypeID, IsOutOfStock: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(inv); err == nil {
			if err := s.rdb.Set(ctx, s.cacheKey(materialTypeID), raw, s.policy.StockCacheTTL).Err(); err != nil {
				s.logger.Warn("stock cache write failed",
					zap.String("material", materialTypeID), zap.Error(err))
			}
		}
	}
	return inv, nil
}

// AdjustStockRequest 人工调整请求（盘点对账通道）
type AdjustStockRequest struct {
	MaterialTypeID string          `json:"material_type_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"` // 正调增，负调减
	Reason         string          `json:"reason" binding:"required"`
}

// AdjustStock 人工动账。唯一不经料件台账改总量的入口，必须留原因。
func (s *InventoryService) AdjustStock(req *AdjustStockRequest, userID string) (*entity.Inventory, error) {
	if req.Quantity.IsZero() {
		return nil, fmt.Errorf("%w: 调整数量不能为零", ErrValidation)
	}
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: 调整必须填写原因", ErrValidation)
	}
	material, err := s.materialRepo.GetByID(req.MaterialTypeID)
	if err != nil {
		return nil, fmt.Errorf("%w: 材料 %s", ErrNotFound, req.MaterialTypeID)
	}

	err = s.invRepo.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.RecordTransactionTx(tx, &entity.InventoryTransaction{
			MaterialTypeID:  req.MaterialTypeID,
			MaterialCode:    material.Code,
			TransactionType: entity.TxTypeAdjust,
			Quantity:        req.Quantity,
			ReferenceType:   "ADJUST",
			ReferenceID:     fmt.Sprintf("ADJ-%s", time.Now().Format("20060102150405")),
			Reason:          req.Reason,
			CreatedBy:       userID,
		}); err != nil {
			return err
		}
		return s.RecomputeTx(tx, req.MaterialTypeID)
	})
	if err != nil {
		return nil, err
	}
	s.InvalidateCache(req.MaterialTypeID)

	s.logger.Info("stock adjusted",
		zap.String("material", material.Code),
		zap.String("quantity", req.Quantity.String()),
		zap.String("reason", req.Reason),
		zap.String("operator", userID))
	return s.invRepo.GetByMaterial(req.MaterialTypeID)
}

// Alerts 低库存与缺货告警
func (s *InventoryService) Alerts() ([]entity.Inventory, error) {
	return s.invRepo.ListAlerts()
}

func (s *InventoryService) ListTransactions(materialTypeID string, page, size int) ([]entity.InventoryTransaction, int64, error) {
	return s.invRepo.ListTransactions(materialTypeID, page, size)
}

// ConservationReport 对账结果：流水净额、非终态料件长度合计与汇总行三方比对
type ConservationReport struct {
	MaterialTypeID string          `json:"material_type_id"`
	LedgerTotal    decimal.Decimal `json:"ledger_total"`    // 流水净额
	PieceTotal     decimal.Decimal `json:"piece_total"`     // 在库料件剩余长度合计
	SummaryTotal   decimal.Decimal `json:"summary_total"`   // 汇总行总量
	Balanced       bool            `json:"balanced"`
}

// VerifyConservation 三账核对。任何不相等都意味着动账绕过了台账。
func (s *InventoryService) VerifyConservation(materialTypeID string) (*ConservationReport, error) {
	db := s.invRepo.DB()
	ledger, err := s.invRepo.SumTransactions(db, materialTypeID)
	if err != nil {
		return nil, err
	}
	pieces, err := s.invRepo.SumPiecesByStatus(db, materialTypeID, []string{
		entity.PieceStatusAvailable, entity.PieceStatusAllocated,
		entity.PieceStatusIssued, entity.PieceStatusInUse, entity.PieceStatusReturned,
	})
	if err != nil {
		return nil, err
	}
	summary := decimal.Zero
	if inv, err := s.invRepo.GetByMaterial(materialTypeID); err == nil {
		summary = inv.TotalQty
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &ConservationReport{
		MaterialTypeID: materialTypeID,
		LedgerTotal:    ledger,
		PieceTotal:     pieces,
		SummaryTotal:   summary,
		Balanced:       ledger.Equal(pieces) && ledger.Equal(summary),
	}, nil
}
