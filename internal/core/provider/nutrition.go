package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// NutritionService 營養成分查詢服務
type NutritionService struct {
	client *resty.Client
}

// NewNutritionService 創建營養成分查詢服務
func NewNutritionService(cfg *config.Config) *NutritionService {
	client := resty.New().
		SetBaseURL(cfg.Providers.NutritionBaseURL).
		SetTimeout(cfg.Providers.Timeout)

	return &NutritionService{client: client}
}

// QueryByName 以食物名稱查詢營養成分
func (s *NutritionService) QueryByName(ctx context.Context, name string) ([]common.NutritionRow, error) {
	started := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		Get("/nutrition")
	common.LogProviderCall("nutrition", time.Since(started), err, "")

	if err != nil {
		return nil, fmt.Errorf("failed to query nutrition data: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		// 查不到不是錯誤，管線以空列表繼續
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("nutrition API returned error: %s", resp.String())
	}

	var rows []common.NutritionRow
	if err := common.ParseJSONBytes(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse nutrition response: %w", err)
	}
	return rows, nil
}
