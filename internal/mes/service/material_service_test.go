package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestMaterialCreateAndGet(t *testing.T) {
	svcs, _, _ := newTestServices(t)

	m, err := svcs.Material.Create(CreateMaterialRequest{
		Code:            "RM-EN8-50",
		Name:            "EN8 Round Bar 50mm",
		Grade:           "EN8",
		Shape:           "ROUND",
		DiameterMM:      decimal.NewFromInt(50),
		DensityGCM3:     decimal.NewFromFloat(7.85),
		CrossSectionCM2: decimal.NewFromFloat(19.635),
	}, "tester")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svcs.Material.GetByID(m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Code != "RM-EN8-50" {
		t.Errorf("Expected code RM-EN8-50, got %s", got.Code)
	}
}

func TestGetMissingMasterData(t *testing.T) {
	svcs, _, _ := newTestServices(t)

	// 缺失记录必须映射为 ErrNotFound，而不是裸的 gorm 错误
	if _, err := svcs.Material.GetByID(uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing material, got %v", err)
	}
	if _, err := svcs.Requisition.GetByID(uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing requisition, got %v", err)
	}
}
