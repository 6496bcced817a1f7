package service

import (
	"fmt"
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/xuri/excelize/v2"
)

// ReportService 库存与耗用报表导出
type ReportService struct {
	usageRepo    *repository.UsageRepository
	invRepo      *repository.InventoryRepository
	materialRepo *repository.MaterialRepository
}

func NewReportService(usageRepo *repository.UsageRepository, invRepo *repository.InventoryRepository, materialRepo *repository.MaterialRepository) *ReportService {
	return &ReportService{
		usageRepo:    usageRepo,
		invRepo:      invRepo,
		materialRepo: materialRepo,
	}
}

// ListUsage 耗用明细查询
func (s *ReportService) ListUsage(params repository.UsageListParams) ([]entity.MaterialUsageHistory, int64, error) {
	return s.usageRepo.List(params)
}

var usageExportHeaders = []string{
	"料件编号", "材料编码", "工单号", "订单号", "使用长度(mm)",
	"报废长度(mm)", "剩余长度(mm)", "操作人", "使用时间",
}

// ExportUsage 导出材料耗用明细为xlsx
func (s *ReportService) ExportUsage(params repository.UsageListParams) (*excelize.File, string, error) {
	params.Page = 1
	params.Size = 10000
	records, _, err := s.usageRepo.List(params)
	if err != nil {
		return nil, "", fmt.Errorf("list usage: %w", err)
	}

	materialCodes := map[string]string{}
	materials, _, err := s.materialRepo.List(repository.MaterialListParams{Size: 10000})
	if err != nil {
		return nil, "", fmt.Errorf("list materials: %w", err)
	}
	for _, m := range materials {
		materialCodes[m.ID] = m.Code
	}

	f := excelize.NewFile()
	sheet := "耗用明细"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range usageExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, rec := range records {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rec.PieceNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), materialCodes[rec.MaterialTypeID])
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), rec.JobCardRef)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), rec.OrderRef)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), rec.LengthUsedMM.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), rec.WastageGeneratedMM.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), rec.RemainingLengthMM.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), rec.Operator)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), rec.UsedAt.Format("2006-01-02 15:04:05"))
	}

	colWidths := []float64{18, 16, 14, 14, 14, 14, 14, 12, 20}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("材料耗用_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}

var stockExportHeaders = []string{
	"材料编码", "牌号", "截面", "总量(mm)", "可用(mm)",
	"已配(mm)", "已发(mm)", "均价", "低库存", "缺货",
}

// ExportStockSummary 导出库存汇总为xlsx
func (s *ReportService) ExportStockSummary() (*excelize.File, string, error) {
	materials, _, err := s.materialRepo.List(repository.MaterialListParams{Size: 10000})
	if err != nil {
		return nil, "", fmt.Errorf("list materials: %w", err)
	}

	f := excelize.NewFile()
	sheet := "库存汇总"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range stockExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 2
	for _, m := range materials {
		inv, err := s.invRepo.GetByMaterial(m.ID)
		if err != nil {
			continue // 无动账记录的材料不出现在汇总中
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.Code)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), m.Grade)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), m.Shape)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), inv.TotalQty.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), inv.AvailableQty.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), inv.AllocatedQty.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), inv.IssuedQty.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), inv.AvgUnitCost.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), boolLabel(inv.IsLowStock))
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), boolLabel(inv.IsOutOfStock))
		row++
	}

	colWidths := []float64{16, 12, 10, 14, 14, 14, 14, 10, 8, 8}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("库存汇总_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}

func boolLabel(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
