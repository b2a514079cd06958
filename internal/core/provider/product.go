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

// ProductService 健康食品 / 管制產品查詢服務
type ProductService struct {
	client *resty.Client
}

// NewProductService 創建管制產品查詢服務
func NewProductService(cfg *config.Config) *ProductService {
	client := resty.New().
		SetBaseURL(cfg.Providers.ProductBaseURL).
		SetTimeout(cfg.Providers.Timeout)

	return &ProductService{client: client}
}

// QueryByName 以名稱查詢相關的管制產品
func (s *ProductService) QueryByName(ctx context.Context, name string) ([]common.ProductRow, error) {
	started := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		Get("/products")
	common.LogProviderCall("product", time.Since(started), err, "")

	if err != nil {
		return nil, fmt.Errorf("failed to query product data: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("product API returned error: %s", resp.String())
	}

	var rows []common.ProductRow
	if err := common.ParseJSONBytes(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse product response: %w", err)
	}
	return rows, nil
}
