package service

import (
	"context"
	"errors"
	"testing"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/shopspring/decimal"
)

func TestCalcLengthMM(t *testing.T) {
	// length = weight/(density*area)*10
	got, err := calcLengthMM(decimal.NewFromInt(1000), decimal.NewFromInt(2), decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("calcLengthMM: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected 1000, got %s", got)
	}

	got, err = calcLengthMM(decimal.NewFromFloat(924.809), decimal.NewFromFloat(7.85), decimal.NewFromFloat(19.635))
	if err != nil {
		t.Fatalf("calcLengthMM: %v", err)
	}
	if !got.Equal(decimal.NewFromFloat(60.000)) {
		t.Errorf("Expected 60.000, got %s", got)
	}

	if _, err := calcLengthMM(decimal.NewFromInt(100), decimal.Zero, decimal.NewFromInt(5)); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for zero density, got %v", err)
	}
}

func TestVariancePct(t *testing.T) {
	cases := []struct {
		declared, calculated, want string
	}{
		{"12000", "12000", "0"},
		{"12000", "11650", "3.004"},
		{"12000", "10700", "12.15"},
		{"10700", "12000", "10.833"},
	}
	for _, c := range cases {
		declared, _ := decimal.NewFromString(c.declared)
		calculated, _ := decimal.NewFromString(c.calculated)
		want, _ := decimal.NewFromString(c.want)
		if got := variancePct(declared, calculated); !got.Equal(want) {
			t.Errorf("variancePct(%s, %s) = %s, want %s", c.declared, c.calculated, got, want)
		}
	}
}

func TestSubmitGRNWithinThreshold(t *testing.T) {
	svcs, repos, db := newTestServices(t)
	m := seedBarMaterial(t, db, "RM-EN8-25")

	pieces := receiveBars(t, svcs, m.ID, 2, 6000)
	for _, p := range pieces {
		if p.Status != entity.PieceStatusAvailable {
			t.Errorf("Expected piece status AVAILABLE, got %s", p.Status)
		}
		if !p.CurrentLengthMM.Equal(decimal.NewFromInt(6000)) {
			t.Errorf("Expected current length 6000, got %s", p.CurrentLengthMM)
		}
		if !p.OriginalLengthMM.Equal(p.CurrentLengthMM) {
			t.Errorf("Expected original == current on receipt")
		}
	}

	inv, err := repos.Inventory.GetByMaterial(m.ID)
	if err != nil {
		t.Fatalf("GetByMaterial: %v", err)
	}
	if !inv.TotalQty.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("Expected inventory total 12000, got %s", inv.TotalQty)
	}
	if !inv.AvailableQty.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("Expected available 12000, got %s", inv.AvailableQty)
	}
}

func TestSubmitGRNOverThresholdNeedsApproval(t *testing.T) {
	svcs, repos, db := newTestServices(t)
	m := seedBarMaterial(t, db, "RM-EN8-30")

	// 申报 2x6000=12000，按重量推算 10700 -> 差异 12.15% > 5%
	result, err := svcs.Receipt.SubmitGRN(SubmitGRNRequest{
		Lines: []SubmitGRNLine{{
			MaterialTypeID:   m.ID,
			PieceCount:       2,
			DeclaredLengthMM: decimal.NewFromInt(6000),
			DeclaredWeightKG: decimal.NewFromInt(10700),
		}},
	}, "tester")
	if err != nil {
		t.Fatalf("SubmitGRN: %v", err)
	}
	if result.GRN.Status != entity.GRNStatusPendingApproval {
		t.Fatalf("Expected PENDING_APPROVAL, got %s", result.GRN.Status)
	}
	if len(result.Pieces) != 0 {
		t.Fatalf("Expected no pieces before approval, got %d", len(result.Pieces))
	}

	// 未审批前不入账
	if _, err := repos.Inventory.GetByMaterial(m.ID); err == nil {
		t.Error("Expected no inventory row before approval")
	}

	pieces, err := svcs.Receipt.ApproveGRN(context.Background(), result.GRN.ID, "approver", "checked at gate")
	if err != nil {
		t.Fatalf("ApproveGRN: %v", err)
	}
	if len(pieces) != 2 {
		t.Fatalf("Expected 2 pieces after approval, got %d", len(pieces))
	}

	// 入账以申报长度为准
	inv, err := repos.Inventory.GetByMaterial(m.ID)
	if err != nil {
		t.Fatalf("GetByMaterial after approval: %v", err)
	}
	if !inv.TotalQty.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("Expected inventory total 12000, got %s", inv.TotalQty)
	}

	// 重复审批幂等：返回既有料件，不重复建账
	again, err := svcs.Receipt.ApproveGRN(context.Background(), result.GRN.ID, "approver", "")
	if err != nil {
		t.Fatalf("Second ApproveGRN: %v", err)
	}
	if len(again) != 2 {
		t.Fatalf("Expected 2 existing pieces, got %d", len(again))
	}
	inv, _ = repos.Inventory.GetByMaterial(m.ID)
	if !inv.TotalQty.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("Expected total unchanged at 12000, got %s", inv.TotalQty)
	}

	// 已入账后拒收返回冲突
	if err := svcs.Receipt.RejectGRN(context.Background(), result.GRN.ID, "approver", "late"); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected ErrAlreadyResolved, got %v", err)
	}
}

func TestRejectGRN(t *testing.T) {
	svcs, _, db := newTestServices(t)
	m := seedBarMaterial(t, db, "RM-EN8-35")

	result, err := svcs.Receipt.SubmitGRN(SubmitGRNRequest{
		Lines: []SubmitGRNLine{{
			MaterialTypeID:   m.ID,
			PieceCount:       1,
			DeclaredLengthMM: decimal.NewFromInt(6000),
			DeclaredWeightKG: decimal.NewFromInt(5000),
		}},
	}, "tester")
	if err != nil {
		t.Fatalf("SubmitGRN: %v", err)
	}
	if result.GRN.Status != entity.GRNStatusPendingApproval {
		t.Fatalf("Expected PENDING_APPROVAL, got %s", result.GRN.Status)
	}

	if err := svcs.Receipt.RejectGRN(context.Background(), result.GRN.ID, "approver", "bad batch"); err != nil {
		t.Fatalf("RejectGRN: %v", err)
	}
	// 拒收幂等
	if err := svcs.Receipt.RejectGRN(context.Background(), result.GRN.ID, "approver", "bad batch"); err != nil {
		t.Fatalf("Second RejectGRN: %v", err)
	}
	// 拒收后不可审批
	if _, err := svcs.Receipt.ApproveGRN(context.Background(), result.GRN.ID, "approver", ""); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected ErrAlreadyResolved, got %v", err)
	}

	pieces, err := svcs.Receipt.ListPieces(result.GRN.ID)
	if err != nil {
		t.Fatalf("ListPieces: %v", err)
	}
	if len(pieces) != 0 {
		t.Errorf("Expected no pieces for rejected GRN, got %d", len(pieces))
	}
}

func TestSubmitGRNWeightOnly(t *testing.T) {
	svcs, _, db := newTestServices(t)
	m := seedBarMaterial(t, db, "RM-EN8-40")

	// 未申报长度：按重量推算入账，无可争议的申报值，不走审批
	result, err := svcs.Receipt.SubmitGRN(SubmitGRNRequest{
		Lines: []SubmitGRNLine{{
			MaterialTypeID:   m.ID,
			PieceCount:       2,
			DeclaredWeightKG: decimal.NewFromInt(8000),
		}},
	}, "tester")
	if err != nil {
		t.Fatalf("SubmitGRN: %v", err)
	}
	if result.GRN.Status != entity.GRNStatusReceived {
		t.Fatalf("Expected RECEIVED, got %s", result.GRN.Status)
	}
	// 单件重量 4000kg -> 推算长度 4000mm
	for _, p := range result.Pieces {
		if !p.CurrentLengthMM.Equal(decimal.NewFromInt(4000)) {
			t.Errorf("Expected derived length 4000, got %s", p.CurrentLengthMM)
		}
	}
}
