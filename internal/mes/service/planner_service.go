package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlannerService 配料计划：只读台账并产出切割方案草稿。
// 方案不锁料件，并发方案可以引用同一根料；防止重复消耗靠发料时re校验。
type PlannerService struct {
	draftRepo    *repository.DraftRepository
	pieceRepo    *repository.PieceRepository
	reqRepo      *repository.RequisitionRepository
	materialRepo *repository.MaterialRepository
	policy       StockPolicy
}

func NewPlannerService(draftRepo *repository.DraftRepository, pieceRepo *repository.PieceRepository, reqRepo *repository.RequisitionRepository, materialRepo *repository.MaterialRepository, policy StockPolicy) *PlannerService {
	return &PlannerService{
		draftRepo:    draftRepo,
		pieceRepo:    pieceRepo,
		reqRepo:      reqRepo,
		materialRepo: materialRepo,
		policy:       policy,
	}
}

// PieceCut 预选料件与切割长度（API 边界上的显式列表，替代旧系统的分隔串）
type PieceCut struct {
	PieceID  string          `json:"piece_id" binding:"required"`
	LengthMM decimal.Decimal `json:"length_mm" binding:"required"`
}

type PlanItem struct {
	RequisitionItemID string     `json:"requisition_item_id" binding:"required"`
	Preselected       []PieceCut `json:"preselected,omitempty"`
}

type PlanRequest struct {
	Items []PlanItem `json:"items" binding:"required,min=1"`
	Notes string     `json:"notes"`
}

// plannedCut 规划阶段的内部切割表示
type plannedCut struct {
	pieceID  string
	lengthMM decimal.Decimal
}

// planCuts 贪心配料：按给定顺序消耗料件，单根不够就跨根拆分。
// pieces 的 workingLength 跨多次调用共享（同一方案内多行消耗同一根料），
// 返回耗尽后仍未满足的数量。纯函数，不触库。
func planCuts(pieces []*workingPiece, required decimal.Decimal) ([]plannedCut, decimal.Decimal) {
	var cuts []plannedCut
	remaining := required
	for _, wp := range pieces {
		if !remaining.IsPositive() {
			break
		}
		if !wp.remaining.IsPositive() {
			continue
		}
		cut := decimal.Min(remaining, wp.remaining)
		wp.remaining = wp.remaining.Sub(cut)
		cuts = append(cuts, plannedCut{pieceID: wp.piece.ID, lengthMM: cut})
		remaining = remaining.Sub(cut)
	}
	return cuts, remaining
}

// workingPiece 规划期间的料件工作副本
type workingPiece struct {
	piece     entity.MaterialPiece
	remaining decimal.Decimal
}

// Plan 为一组领料单行生成切割方案草稿。
// 预选料件按当前台账校验后原样采用；未预选的行按默认顺序贪心配料。
func (s *PlannerService) Plan(req PlanRequest, userID string) (*entity.AllocationDraft, error) {
	// 方案内共享的料件工作副本：piece id -> 工作状态
	working := make(map[string]*workingPiece)
	// 每材料一份排序后的候选列表
	availByMaterial := make(map[string][]*workingPiece)
	// bars 按首次触达顺序聚合
	barOrder := make([]string, 0)
	cutsByPiece := make(map[string][]entity.DraftCut)

	loadPiece := func(pieceID string) (*workingPiece, error) {
		if wp, ok := working[pieceID]; ok {
			return wp, nil
		}
		p, err := s.pieceRepo.GetByID(pieceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 料件 %s", ErrNotFound, pieceID)
		}
		if err != nil {
			return nil, err
		}
		wp := &workingPiece{piece: *p, remaining: p.CurrentLengthMM}
		working[pieceID] = wp
		return wp, nil
	}

	appendCut := func(pieceID, itemID string, length decimal.Decimal) {
		if _, ok := cutsByPiece[pieceID]; !ok {
			barOrder = append(barOrder, pieceID)
		}
		cutsByPiece[pieceID] = append(cutsByPiece[pieceID], entity.DraftCut{
			ID:                uuid.New().String(),
			RequisitionItemID: itemID,
			Seq:               len(cutsByPiece[pieceID]) + 1,
			LengthMM:          length,
		})
	}

	for _, planItem := range req.Items {
		item, err := s.reqRepo.GetItem(planItem.RequisitionItemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 领料单行 %s", ErrNotFound, planItem.RequisitionItemID)
		}
		if err != nil {
			return nil, err
		}

		// 预选路径：逐条校验并原样采用
		if len(planItem.Preselected) > 0 {
			for _, pc := range planItem.Preselected {
				if !pc.LengthMM.IsPositive() {
					return nil, fmt.Errorf("%w: 预选切割长度必须为正", ErrValidation)
				}
				wp, err := loadPiece(pc.PieceID)
				if err != nil {
					return nil, err
				}
				if wp.piece.Status != entity.PieceStatusAvailable {
					return nil, fmt.Errorf("%w: 料件 %s 状态 %s", ErrStalePiece, wp.piece.PieceNumber, wp.piece.Status)
				}
				if pc.LengthMM.GreaterThan(wp.remaining) {
					return nil, fmt.Errorf("%w: 料件 %s 剩余 %s mm，预选 %s mm",
						ErrStalePiece, wp.piece.PieceNumber, wp.remaining, pc.LengthMM)
				}
				wp.remaining = wp.remaining.Sub(pc.LengthMM)
				appendCut(pc.PieceID, item.ID, pc.LengthMM)
			}
			continue
		}

		// 贪心路径：默认顺序（先进先出、长料优先）
		candidates, ok := availByMaterial[item.MaterialTypeID]
		if !ok {
			pieces, err := s.pieceRepo.GetAvailable(item.MaterialTypeID)
			if err != nil {
				return nil, err
			}
			candidates = make([]*workingPiece, 0, len(pieces))
			for _, p := range pieces {
				wp, ok := working[p.ID]
				if !ok {
					wp = &workingPiece{piece: p, remaining: p.CurrentLengthMM}
					working[p.ID] = wp
				}
				candidates = append(candidates, wp)
			}
			availByMaterial[item.MaterialTypeID] = candidates
		}

		cuts, unmet := planCuts(candidates, item.PendingQty())
		if unmet.IsPositive() {
			return nil, fmt.Errorf("%w: 材料 %s 缺口 %s mm",
				ErrInsufficientStock, item.MaterialTypeID, unmet)
		}
		for _, c := range cuts {
			appendCut(c.pieceID, item.ID, c.lengthMM)
		}
	}

	if len(barOrder) == 0 {
		return nil, fmt.Errorf("%w: 没有可规划的切割", ErrValidation)
	}

	// 组装方案
	code := fmt.Sprintf("CUT-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000)
	draft := &entity.AllocationDraft{
		ID:        uuid.New().String(),
		DraftCode: code,
		Status:    entity.DraftStatusDraft,
		Notes:     req.Notes,
		CreatedBy: userID,
	}
	for _, pieceID := range barOrder {
		wp := working[pieceID]
		material, err := s.materialRepo.GetByID(wp.piece.MaterialTypeID)
		if err != nil {
			return nil, err
		}
		minUsable := material.MinUsableLengthMM
		if !minUsable.IsPositive() {
			minUsable = s.policy.MinUsableLengthMM
		}
		bar := entity.DraftBar{
			ID:                   uuid.New().String(),
			PieceID:              pieceID,
			LengthAtPlanMM:       wp.piece.CurrentLengthMM,
			PredictedRemainderMM: wp.remaining,
			WillBeScrap:          wp.remaining.IsPositive() && wp.remaining.LessThan(minUsable),
			Cuts:                 cutsByPiece[pieceID],
		}
		for i := range bar.Cuts {
			bar.Cuts[i].DraftBarID = bar.ID
		}
		draft.Bars = append(draft.Bars, bar)
	}

	if err := s.draftRepo.Create(draft); err != nil {
		return nil, fmt.Errorf("保存切割方案失败: %w", err)
	}
	return draft, nil
}

func (s *PlannerService) GetByID(id string) (*entity.AllocationDraft, error) {
	draft, err := s.draftRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 切割方案 %s", ErrNotFound, id)
	}
	return draft, err
}

func (s *PlannerService) List(params repository.DraftListParams) ([]entity.AllocationDraft, int64, error) {
	return s.draftRepo.List(params)
}

// Cancel 作废草稿。纯元数据变更：规划从不动料件，无需回滚任何库存。
func (s *PlannerService) Cancel(id, userID string) (*entity.AllocationDraft, error) {
	draft, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if draft.Status != entity.DraftStatusDraft {
		return nil, fmt.Errorf("%w: 当前状态 %s", ErrDraftNotOpen, draft.Status)
	}
	draft.Status = entity.DraftStatusCancelled
	if err := s.draftRepo.Update(draft); err != nil {
		return nil, err
	}
	return draft, nil
}
