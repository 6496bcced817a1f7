package service

import (
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/config"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockPolicy 库存策略（配置换算为定点数，服务内统一使用）
type StockPolicy struct {
	VarianceThresholdPct decimal.Decimal
	MinUsableLengthMM    decimal.Decimal
	IssueLockWait        time.Duration
	IssueLockTTL         time.Duration
	StockCacheTTL        time.Duration
}

func NewStockPolicy(cfg config.StockConfig) StockPolicy {
	return StockPolicy{
		VarianceThresholdPct: decimal.NewFromFloat(cfg.VarianceThresholdPct),
		MinUsableLengthMM:    decimal.NewFromFloat(cfg.MinUsableLengthMM),
		IssueLockWait:        cfg.IssueLockWait,
		IssueLockTTL:         cfg.IssueLockTTL,
		StockCacheTTL:        cfg.StockCacheTTL,
	}
}

// Services 库存/配料服务集合
type Services struct {
	Material    *MaterialService
	Requisition *RequisitionService
	Receipt     *ReceiptService
	Piece       *PieceService
	Planner     *PlannerService
	Issue       *IssueService
	Inventory   *InventoryService
	Report      *ReportService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	policy := NewStockPolicy(cfg.Stock)

	// redis 不可用时退化为进程内锁（单实例部署场景）
	var locker *redislock.Client
	if rdb != nil {
		locker = redislock.New(rdb)
	}
	lockMgr := NewLockManager()

	inventory := NewInventoryService(repos.Inventory, repos.Material, repos.Allocation, rdb, policy, logger)
	piece := NewPieceService(repos.Piece, repos.Usage, inventory, db, policy, logger)
	receipt := NewReceiptService(repos.GRN, repos.Material, piece, inventory, db, locker, policy, logger)
	planner := NewPlannerService(repos.Draft, repos.Piece, repos.Requisition, repos.Material, policy)
	issue := NewIssueService(repos.Draft, repos.Piece, repos.Requisition, repos.Allocation, repos.Usage, piece, inventory, db, locker, lockMgr, policy, logger)

	return &Services{
		Material:    NewMaterialService(repos.Material),
		Requisition: NewRequisitionService(repos.Requisition, repos.Material),
		Receipt:     receipt,
		Piece:       piece,
		Planner:     planner,
		Issue:       issue,
		Inventory:   inventory,
		Report:      NewReportService(repos.Usage, repos.Inventory, repos.Material),
	}
}
