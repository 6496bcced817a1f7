package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/config"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPieceAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	cfg := &config.Config{
		Stock: config.StockConfig{
			VarianceThresholdPct: 5.0,
			MinUsableLengthMM:    50.0,
			IssueLockWait:        2 * time.Second,
			IssueLockTTL:         30 * time.Second,
			StockCacheTTL:        time.Minute,
		},
	}
	svcs := service.NewServices(repos, db, nil, cfg, zap.NewNop())
	h := NewHandlers(svcs)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1/mes")
	{
		api.GET("/pieces/:id", h.Piece.Get)
		api.GET("/pieces", h.Piece.List)
		api.POST("/pieces/:id/status", h.Piece.MarkStatus)
		api.GET("/pieces/:id/conservation", h.Piece.Conservation)
	}
	return r, db
}

func TestPieceStatusOverHTTP(t *testing.T) {
	r, db := setupPieceAPI(t)
	m := testutil.SeedMaterial(t, db, "RM-PH-1")
	p := testutil.SeedPiece(t, db, m.ID, 6000)

	w := testutil.DoRequest(r, "POST", "/api/v1/mes/pieces/"+p.ID+"/status",
		map[string]interface{}{"status": "SCRAP", "reason": "弯曲变形"}, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Mark status failed with %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != "SCRAP" {
		t.Errorf("Expected SCRAP, got %v", data["status"])
	}
	if data["is_wastage"] != true {
		t.Error("Expected wastage flag in response")
	}

	// 非法迁移：SCRAP 是终态
	w = testutil.DoRequest(r, "POST", "/api/v1/mes/pieces/"+p.ID+"/status",
		map[string]interface{}{"status": "AVAILABLE"}, testutil.DefaultTestToken())
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for terminal transition, got %d", w.Code)
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/mes/pieces/"+p.ID+"/conservation", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Conservation check failed with %d", w.Code)
	}
	check := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if check["balanced"] != true {
		t.Error("Expected write-off to keep the piece balanced")
	}
}

func TestPieceListFilterOverHTTP(t *testing.T) {
	r, db := setupPieceAPI(t)
	m := testutil.SeedMaterial(t, db, "RM-PH-2")
	testutil.SeedPiece(t, db, m.ID, 6000)
	testutil.SeedPiece(t, db, m.ID, 3000)

	w := testutil.DoRequest(r, "GET", "/api/v1/mes/pieces?material_type_id="+m.ID+"&status=AVAILABLE", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("List failed with %d", w.Code)
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["total"].(float64) != 2 {
		t.Errorf("Expected 2 pieces, got %v", data["total"])
	}
}
