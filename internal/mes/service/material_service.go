package service

import (
	"errors"
	"fmt"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MaterialService struct {
	repo *repository.MaterialRepository
}

func NewMaterialService(repo *repository.MaterialRepository) *MaterialService {
	return &MaterialService{repo: repo}
}

type CreateMaterialRequest struct {
	Code              string          `json:"code" binding:"required"`
	Name              string          `json:"name" binding:"required"`
	Grade             string          `json:"grade"`
	Shape             string          `json:"shape"`
	DiameterMM        decimal.Decimal `json:"diameter_mm"`
	WallThicknessMM   decimal.Decimal `json:"wall_thickness_mm"`
	DensityGCM3       decimal.Decimal `json:"density_g_cm3"`
	CrossSectionCM2   decimal.Decimal `json:"cross_section_cm2"`
	Unit              string          `json:"unit"`
	ReorderLevel      decimal.Decimal `json:"reorder_level"`
	MinUsableLengthMM decimal.Decimal `json:"min_usable_length_mm"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
}

func (s *MaterialService) Create(req CreateMaterialRequest, userID string) (*entity.MaterialType, error) {
	if req.DensityGCM3.IsNegative() || req.CrossSectionCM2.IsNegative() {
		return nil, fmt.Errorf("%w: 密度与截面积不能为负", ErrValidation)
	}
	shape := req.Shape
	if shape == "" {
		shape = entity.ShapeRound
	}
	unit := req.Unit
	if unit == "" {
		unit = entity.UnitMM
	}

	m := &entity.MaterialType{
		ID:                uuid.New().String(),
		Code:              req.Code,
		Name:              req.Name,
		Grade:             req.Grade,
		Shape:             shape,
		DiameterMM:        req.DiameterMM,
		WallThicknessMM:   req.WallThicknessMM,
		DensityGCM3:       req.DensityGCM3,
		CrossSectionCM2:   req.CrossSectionCM2,
		Unit:              unit,
		ReorderLevel:      req.ReorderLevel,
		MinUsableLengthMM: req.MinUsableLengthMM,
		UnitCost:          req.UnitCost,
		IsActive:          true,
		CreatedBy:         userID,
	}
	if err := s.repo.Create(m); err != nil {
		return nil, fmt.Errorf("创建材料失败: %w", err)
	}
	return m, nil
}

func (s *MaterialService) GetByID(id string) (*entity.MaterialType, error) {
	m, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 材料 %s", ErrNotFound, id)
	}
	return m, err
}

func (s *MaterialService) List(params repository.MaterialListParams) ([]entity.MaterialType, int64, error) {
	return s.repo.List(params)
}
