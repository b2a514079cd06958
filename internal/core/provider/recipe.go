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

// RecipeService 料理建議查詢服務
type RecipeService struct {
	client *resty.Client
}

// NewRecipeService 創建料理建議查詢服務
func NewRecipeService(cfg *config.Config) *RecipeService {
	client := resty.New().
		SetBaseURL(cfg.Providers.RecipeBaseURL).
		SetTimeout(cfg.Providers.Timeout)

	return &RecipeService{client: client}
}

// QueryRecipes 查詢適合該食物的料理方式
func (s *RecipeService) QueryRecipes(ctx context.Context, food string) ([]common.RecipeRow, error) {
	started := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("food", food).
		Get("/recipes")
	common.LogProviderCall("recipe", time.Since(started), err, "")

	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("recipe API returned error: %s", resp.String())
	}

	var rows []common.RecipeRow
	if err := common.ParseJSONBytes(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse recipe response: %w", err)
	}
	return rows, nil
}
