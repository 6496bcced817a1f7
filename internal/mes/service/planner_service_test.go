package service

import (
	"context"
	"errors"
	"testing"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/shopspring/decimal"
)

func wp(id string, remaining int64) *workingPiece {
	return &workingPiece{
		piece:     entity.MaterialPiece{ID: id},
		remaining: decimal.NewFromInt(remaining),
	}
}

func TestPlanCutsSinglePiece(t *testing.T) {
	pieces := []*workingPiece{wp("p1", 6000)}
	cuts, unmet := planCuts(pieces, decimal.NewFromInt(4000))
	if !unmet.IsZero() {
		t.Fatalf("Expected no shortfall, got %s", unmet)
	}
	if len(cuts) != 1 || !cuts[0].lengthMM.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("Expected one 4000mm cut, got %+v", cuts)
	}
	if !pieces[0].remaining.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("Expected working remainder 2000, got %s", pieces[0].remaining)
	}
}

func TestPlanCutsSpansPieces(t *testing.T) {
	// 7000 需求跨 6000+2000 两根：先耗尽第一根，再从第二根取 1000
	pieces := []*workingPiece{wp("p1", 6000), wp("p2", 2000)}
	cuts, unmet := planCuts(pieces, decimal.NewFromInt(7000))
	if !unmet.IsZero() {
		t.Fatalf("Expected no shortfall, got %s", unmet)
	}
	if len(cuts) != 2 {
		t.Fatalf("Expected 2 cuts, got %d", len(cuts))
	}
	if cuts[0].pieceID != "p1" || !cuts[0].lengthMM.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("Expected p1 cut 6000, got %s %s", cuts[0].pieceID, cuts[0].lengthMM)
	}
	if cuts[1].pieceID != "p2" || !cuts[1].lengthMM.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected p2 cut 1000, got %s %s", cuts[1].pieceID, cuts[1].lengthMM)
	}
}

func TestPlanCutsShortfall(t *testing.T) {
	pieces := []*workingPiece{wp("p1", 3000)}
	cuts, unmet := planCuts(pieces, decimal.NewFromInt(5000))
	if !unmet.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("Expected shortfall 2000, got %s", unmet)
	}
	if len(cuts) != 1 {
		t.Fatalf("Expected 1 cut before shortfall, got %d", len(cuts))
	}
}

func TestPlanCutsSharedWorkingCopy(t *testing.T) {
	// 同一方案内两行共享工作副本：第二次调用只能用第一次剩下的
	pieces := []*workingPiece{wp("p1", 6000)}
	planCuts(pieces, decimal.NewFromInt(4000))
	cuts, unmet := planCuts(pieces, decimal.NewFromInt(3000))
	if !unmet.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("Expected shortfall 1000, got %s", unmet)
	}
	if !cuts[0].lengthMM.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("Expected second call to take remaining 2000, got %s", cuts[0].lengthMM)
	}
}

func TestPlanGreedySpansPieces(t *testing.T) {
	svcs, _, db := newTestServices(t)
	m := seedBarMaterial(t, db, "RM-PLAN-1")
	receiveBars(t, svcs, m.ID, 1, 6000)
	receiveBars(t, svcs, m.ID, 1, 2000)
	item := openRequisition(t, svcs, m.ID, 7000, false)

	draft, err := svcs.Planner.Plan(PlanRequest{
		Items: []PlanItem{{RequisitionItemID: item.ID}},
	}, "planner")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if draft.Status != entity.DraftStatusDraft {
		t.Fatalf("Expected DRAFT status, got %s", draft.Status)
	}
	if len(draft.Bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(draft.Bars))
	}

	first, second := draft.Bars[0], draft.Bars[1]
	if !first.PredictedRemainderMM.IsZero() {
		t.Errorf("Expected first bar fully consumed, remainder %s", first.PredictedRemainderMM)
	}
	if first.WillBeScrap {
		t.Error("Zero remainder is consumed, not scrap")
	}
	if !second.PredictedRemainderMM.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected second bar remainder 1000, got %s", second.PredictedRemainderMM)
	}
	if second.WillBeScrap {
		t.Error("1000mm remainder is above min usable, must not be scrap")
	}
}

func TestPlanPredictsScrapRemainder(t *testing.T) {
	svcs, _, db := newTestServices(t)
	m := seedBarMaterial(t, db, "RM-PLAN-2")
	receiveBars(t, svcs, m.ID, 1, 1000)
	item := openRequisition(t, svcs, m.ID, 970, false)

	draft, err := svcs.Planner.Plan(PlanRequest{
		Items: []PlanItem{{RequisitionItemID: item.ID}},
	}, "planner")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	bar := draft.Bars[0]
	if !bar.PredictedRemainderMM.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("Expected remainder 30, got %s", bar.PredictedRemainderMM)
	}
	if !bar.WillBeScrap {
		t.Error("Expected 30mm remainder below min usable to be flagged as scrap")
	}
}

func TestPlanInsufficientStock(t *testing.T) {
	svcs, _, db := newTestServices(t)
	m := seedBarMaterial(t, db, "RM-PLAN-3")
	receiveBars(t, svcs, m.ID, 1, 3000)
	item := openRequisition(t, svcs, m.ID, 5000, false)

	_, err := svcs.Planner.Plan(PlanRequest{
		Items: []PlanItem{{RequisitionItemID: item.ID}},
	}, "planner")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}
}

func TestPlanPreselectedPieces(t *testing.T) {
	svcs, _, db := newTestServices(t)
	m := seedBarMaterial(t, db, "RM-PLAN-4")
	pieces := receiveBars(t, svcs, m.ID, 2, 6000)
	item := openRequisition(t, svcs, m.ID, 2500, false)

	// 车间指定第二根料
	draft, err := svcs.Planner.Plan(PlanRequest{
		Items: []PlanItem{{
			RequisitionItemID: item.ID,
			Preselected:       []PieceCut{{PieceID: pieces[1].ID, LengthMM: decimal.NewFromInt(2500)}},
		}},
	}, "planner")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(draft.Bars) != 1 || draft.Bars[0].PieceID != pieces[1].ID {
		t.Fatalf("Expected plan to use the preselected piece")
	}

	// 预选超长拒绝
	_, err = svcs.Planner.Plan(PlanRequest{
		Items: []PlanItem{{
			RequisitionItemID: item.ID,
			Preselected:       []PieceCut{{PieceID: pieces[0].ID, LengthMM: decimal.NewFromInt(9000)}},
		}},
	}, "planner")
	if !errors.Is(err, ErrStalePiece) {
		t.Fatalf("Expected ErrStalePiece for oversized preselection, got %v", err)
	}
}

func TestCancelDraft(t *testing.T) {
	svcs, _, db := newTestServices(t)
	m := seedBarMaterial(t, db, "RM-PLAN-5")
	receiveBars(t, svcs, m.ID, 1, 6000)
	item := openRequisition(t, svcs, m.ID, 1000, false)

	draft, err := svcs.Planner.Plan(PlanRequest{
		Items: []PlanItem{{RequisitionItemID: item.ID}},
	}, "planner")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	cancelled, err := svcs.Planner.Cancel(draft.ID, "planner")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != entity.DraftStatusCancelled {
		t.Fatalf("Expected CANCELLED, got %s", cancelled.Status)
	}

	// 作废后不可发料、不可重复作废
	if _, err := svcs.Issue.Issue(context.Background(), draft.ID, "issuer"); !errors.Is(err, ErrDraftNotOpen) {
		t.Errorf("Expected ErrDraftNotOpen on issue, got %v", err)
	}
	if _, err := svcs.Planner.Cancel(draft.ID, "planner"); !errors.Is(err, ErrDraftNotOpen) {
		t.Errorf("Expected ErrDraftNotOpen on second cancel, got %v", err)
	}
}
