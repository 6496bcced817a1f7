package handler

import "github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"

// Handlers 库存与配料HTTP处理器集合
type Handlers struct {
	Material    *MaterialHandler
	GRN         *GRNHandler
	Requisition *RequisitionHandler
	Draft       *DraftHandler
	Piece       *PieceHandler
	Inventory   *InventoryHandler
	Report      *ReportHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Material:    NewMaterialHandler(services.Material),
		GRN:         NewGRNHandler(services.Receipt),
		Requisition: NewRequisitionHandler(services.Requisition),
		Draft:       NewDraftHandler(services.Planner, services.Issue),
		Piece:       NewPieceHandler(services.Piece),
		Inventory:   NewInventoryHandler(services.Inventory),
		Report:      NewReportHandler(services.Report),
	}
}
