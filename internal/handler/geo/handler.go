package geo

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	geosvc "github.com/linguabridge/backend/internal/service/geo"
	"github.com/linguabridge/backend/pkg/utils"
)

// LookupService 抽象国家语言查询
type LookupService interface {
	Lookup(ctx context.Context, iso3, name string) (geosvc.CountryLanguages, error)
}

// Handler 世界地图语言查询的HTTP处理器
type Handler struct {
	svc LookupService
}

// New 创建地理查询处理器
func New(svc LookupService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册地理相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/countries/{code}/languages", h.handleLanguages)
}

// handleLanguages 查询某个国家的语言列表；code 为 ISO3 代码，
// name 查询参数用于代码缺失时的级联回退。
func (h *Handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	name := r.URL.Query().Get("name")

	// 前端对无代码的区域传 "-" 占位。
	if code == "-" {
		code = ""
	}
	if code == "" && name == "" {
		utils.RespondError(w, http.StatusBadRequest, "country code or name is required")
		return
	}

	result, err := h.svc.Lookup(r.Context(), code, name)
	if err != nil {
		if errors.Is(err, geosvc.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "country not found")
			return
		}
		log.Printf("[geo] lookup error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "lookup failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
