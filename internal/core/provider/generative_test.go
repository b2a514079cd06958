package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-analyzer/internal/core/analysis/pipeline"
	"food-analyzer/internal/infrastructure/config"
)

func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestService(baseURL string) *GenerativeService {
	cfg := &config.Config{}
	cfg.Generative.BaseURL = baseURL
	cfg.Generative.APIKey = "test-key"
	cfg.Generative.Model = "test-model"
	cfg.Generative.MaxTokens = 512
	cfg.Generative.Timeout = 5 * time.Second
	return NewGenerativeService(cfg)
}

func TestSynthesizeFinalExtractsWrappedJSON(t *testing.T) {
	// 模型在 JSON 前後附帶說明文字，解析仍須成功
	content := "以下是分析結果：\n{\"score\":73,\"summary\":\"適量食用\",\"good_points\":[\"蛋白質豐富\"],\"bad_points\":[],\"warnings\":[],\"expert_advice\":\"建議\"}\n以上。"
	srv := newChatServer(t, content)
	defer srv.Close()

	svc := newTestService(srv.URL)
	final, err := svc.SynthesizeFinal(context.Background(), "egg", nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if final.Score != 73 {
		t.Fatalf("score = %d, want 73", final.Score)
	}
	if final.Summary != "適量食用" {
		t.Fatalf("summary = %q", final.Summary)
	}
}

func TestSynthesizeFinalClampsScore(t *testing.T) {
	srv := newChatServer(t, `{"score":130,"summary":"x"}`)
	defer srv.Close()

	svc := newTestService(srv.URL)
	final, err := svc.SynthesizeFinal(context.Background(), "egg", nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if final.Score != 100 {
		t.Fatalf("score = %d, want clamped 100", final.Score)
	}
}

func TestAnalyzeComponentsParsesBreakdown(t *testing.T) {
	content := `{"components":[{"name":"鈉","category":"礦物質","effect":"升高血壓","risk_factors":["高血壓"]}],"summary":"鈉含量偏高"}`
	srv := newChatServer(t, content)
	defer srv.Close()

	svc := newTestService(srv.URL)
	breakdown, err := svc.AnalyzeComponents(context.Background(), "instant noodles", []string{"hypertension"}, pipeline.Facts{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(breakdown.Components) != 1 || breakdown.Components[0].Name != "鈉" {
		t.Fatalf("unexpected breakdown: %+v", breakdown)
	}
}

func TestAnalyzeInteractionsSkipsWithoutMedicines(t *testing.T) {
	// 無用藥時不應打到生成式 API
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when medicine list is empty")
	}))
	defer srv.Close()

	svc := newTestService(srv.URL)
	report, err := svc.AnalyzeInteractions(context.Background(), "egg", nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(report.Findings) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
