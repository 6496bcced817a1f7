package repository

import "gorm.io/gorm"

// Repositories 库存/配料仓库集合
type Repositories struct {
	Material    *MaterialRepository
	Piece       *PieceRepository
	GRN         *GRNRepository
	Requisition *RequisitionRepository
	Draft       *DraftRepository
	Allocation  *AllocationRepository
	Usage       *UsageRepository
	Inventory   *InventoryRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Material:    NewMaterialRepository(db),
		Piece:       NewPieceRepository(db),
		GRN:         NewGRNRepository(db),
		Requisition: NewRequisitionRepository(db),
		Draft:       NewDraftRepository(db),
		Allocation:  NewAllocationRepository(db),
		Usage:       NewUsageRepository(db),
		Inventory:   NewInventoryRepository(db),
	}
}
