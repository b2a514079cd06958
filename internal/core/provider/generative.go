package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"food-analyzer/internal/core/analysis/pipeline"
	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// GenerativeService OpenRouter 生成式分析服務
type GenerativeService struct {
	config *config.Config
	client *resty.Client
}

// NewGenerativeService 創建生成式分析服務
func NewGenerativeService(cfg *config.Config) *GenerativeService {
	client := resty.New().
		SetBaseURL(cfg.Generative.BaseURL).
		SetTimeout(cfg.Generative.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Generative.APIKey)).
		SetHeader("HTTP-Referer", "https://food-analyzer.com").
		SetHeader("X-Title", "Food Analyzer")

	return &GenerativeService{
		config: cfg,
		client: client,
	}
}

// AnalyzeComponents 成分分析：找出食物中與健康相關的成分
func (s *GenerativeService) AnalyzeComponents(ctx context.Context, food string, diseases []string, facts pipeline.Facts) (*common.ComponentBreakdown, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("你是營養師。分析「%s」中與健康相關的成分。", food))
	if len(diseases) > 0 {
		sb.WriteString(fmt.Sprintf("使用者患有：%s。", common.StringSliceToString(diseases)))
	}
	if len(facts.Nutrition) > 0 {
		sb.WriteString("參考營養資料：\n")
		sb.WriteString(common.FormatNutritionRows(facts.Nutrition))
	}
	if len(facts.Products) > 0 {
		sb.WriteString("相關管制產品資料：\n")
		sb.WriteString(common.FormatProductRows(facts.Products))
	}
	sb.WriteString(`只輸出緊湊 JSON，不要任何說明文字，格式：{"components":[{"name":"成分","category":"分類","effect":"影響","risk_factors":["風險因子"]}],"summary":"一句話總結"}`)

	content, err := s.chat(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	var breakdown common.ComponentBreakdown
	if err := common.ParseJSON(common.ExtractJSONObject(content), &breakdown); err != nil {
		common.LogWarn("成分分析回應解析失敗",
			zap.String("食物", food),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to parse component analysis: %w", err)
	}
	return &breakdown, nil
}

// AnalyzeInteractions 交互作用分析：判定成分與藥物之間的風險
func (s *GenerativeService) AnalyzeInteractions(ctx context.Context, food string, breakdown *common.ComponentBreakdown, medicines, diseases []string) (*common.InteractionReport, error) {
	// 沒有用藥時不必花一次模型調用
	if len(medicines) == 0 {
		return &common.InteractionReport{}, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("你是藥師。判定「%s」與下列藥物的交互作用風險。", food))
	sb.WriteString(fmt.Sprintf("藥物：%s。", common.StringSliceToString(medicines)))
	if len(diseases) > 0 {
		sb.WriteString(fmt.Sprintf("使用者患有：%s。", common.StringSliceToString(diseases)))
	}
	if breakdown != nil && len(breakdown.Components) > 0 {
		var names []string
		for _, c := range breakdown.Components {
			names = append(names, c.Name)
		}
		sb.WriteString(fmt.Sprintf("食物成分：%s。", common.StringSliceToString(names)))
	}
	sb.WriteString(`風險等級只能是 safe、caution、danger。只輸出緊湊 JSON，格式：{"findings":[{"medicine":"藥名","risk":"safe","components":["涉及成分"],"explanation":"理由"}],"overall_caution":"整體提醒"}`)

	content, err := s.chat(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	var report common.InteractionReport
	if err := common.ParseJSON(common.ExtractJSONObject(content), &report); err != nil {
		common.LogWarn("交互作用回應解析失敗",
			zap.String("食物", food),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to parse interaction analysis: %w", err)
	}
	return &report, nil
}

// SynthesizeFinal 最終總結：彙整前面階段的產出，給出分數與建議
func (s *GenerativeService) SynthesizeFinal(ctx context.Context, food string, breakdown *common.ComponentBreakdown, report *common.InteractionReport, recipes []common.RecipeRow, diseases []string, degraded []string) (*common.FinalAnalysis, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("你是家庭醫師。綜合以下分析，評估「%s」的食用適宜性。", food))
	if len(diseases) > 0 {
		sb.WriteString(fmt.Sprintf("使用者患有：%s。", common.StringSliceToString(diseases)))
	}
	if breakdown != nil && breakdown.Summary != "" {
		sb.WriteString(fmt.Sprintf("成分分析：%s。", breakdown.Summary))
	}
	if report != nil {
		for _, f := range report.Findings {
			sb.WriteString(fmt.Sprintf("藥物 %s 風險 %s：%s。", f.Medicine, f.Risk, f.Explanation))
		}
	}
	if len(recipes) > 0 {
		sb.WriteString("可參考的料理方式：\n")
		sb.WriteString(common.FormatRecipeRows(recipes))
	}
	if len(degraded) > 0 {
		// 告知模型哪些資料來源缺席，讓它以常識補償而非假裝資料存在
		sb.WriteString(fmt.Sprintf("注意：%s 資料來源查詢失敗，請依一般常識評估並在建議中說明資料有限。", common.StringSliceToString(degraded)))
	}
	sb.WriteString(`分數為 0-100 整數，分數越高越適宜。只輸出緊湊 JSON，格式：{"score":75,"summary":"總結","good_points":["優點"],"bad_points":["缺點"],"warnings":["警告"],"expert_advice":"專家建議"}`)

	content, err := s.chat(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	var final common.FinalAnalysis
	if err := common.ParseJSON(common.ExtractJSONObject(content), &final); err != nil {
		common.LogWarn("總結回應解析失敗",
			zap.String("食物", food),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to parse final analysis: %w", err)
	}
	if final.Score < 0 {
		final.Score = 0
	}
	if final.Score > 100 {
		final.Score = 100
	}
	return &final, nil
}

// chat 發送單輪對話請求並取回模型輸出
func (s *GenerativeService) chat(ctx context.Context, prompt string) (string, error) {
	// 簡化 prompt：去除前後空白、連續空白合併
	simplePrompt := strings.TrimSpace(prompt)

	req := map[string]interface{}{
		"model": s.config.Generative.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": simplePrompt,
			},
		},
		"max_tokens": s.config.Generative.MaxTokens,
	}

	started := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	common.LogProviderCall("generative", time.Since(started), err, "")

	if err != nil {
		return "", fmt.Errorf("failed to send request to generative API: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("generative API returned error: %s", resp.String())
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse generative API response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in generative API response")
	}

	return result.Choices[0].Message.Content, nil
}
