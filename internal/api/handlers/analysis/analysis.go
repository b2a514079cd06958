package analysis

import (
	"errors"
	"io"
	"net/http"

	coreanalysis "food-analyzer/internal/core/analysis"
	"food-analyzer/internal/core/analysis/progress"
	"food-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyzeRequest 食物適宜性分析請求
// food_name: 必填；diseases / medicines: 可選；mode: quick（預設）或 full
type AnalyzeRequest struct {
	FoodName  string   `json:"food_name" binding:"required"` // 食物名稱，任意語言
	Diseases  []string `json:"diseases,omitempty"`           // 疾病列表
	Medicines []string `json:"medicines,omitempty"`          // 用藥列表
	Mode      string   `json:"mode,omitempty"`               // 分析深度：quick / full
	UserID    string   `json:"user_id,omitempty"`            // 可選，透傳欄位
}

// HandleAnalyze 處理 /analysis 同步分析 API
func HandleAnalyze(engine *coreanalysis.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header("X-Request-ID", requestID)
		}

		var req AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogError("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}

		common.LogInfo("開始處理分析請求",
			zap.String("request_id", requestID),
			zap.String("food_name", req.FoodName),
			zap.String("mode", req.Mode),
			zap.Int("disease_count", len(req.Diseases)),
			zap.Int("medicine_count", len(req.Medicines)),
			zap.String("client_ip", c.ClientIP()),
		)

		result, err := engine.Resolve(c.Request.Context(), coreanalysis.Request{
			FoodName:    req.FoodName,
			Diseases:    req.Diseases,
			Medicines:   req.Medicines,
			Mode:        common.AnalysisMode(req.Mode),
			RequesterID: req.UserID,
		})
		if err != nil {
			status, message := mapError(err)
			common.LogError("分析請求失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("food_name", req.FoodName),
			)
			c.JSON(status, gin.H{"error": message})
			return
		}

		common.LogInfo("分析請求完成",
			zap.String("request_id", requestID),
			zap.String("food_name", req.FoodName),
			zap.Int("score", result.Score),
			zap.String("source_tier", string(result.SourceTier)),
		)
		c.JSON(http.StatusOK, result)
	}
}

// HandleAnalyzeStream 處理 /analysis/stream 串流分析 API
//
// 以 SSE 逐事件推送進度，result 或 error 為最後一筆。
// 客戶端中途斷線只會停止推送，底層計算照常完成並寫入快取。
func HandleAnalyzeStream(engine *coreanalysis.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header("X-Request-ID", requestID)
		}

		var req AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogError("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}

		common.LogInfo("開始處理串流分析請求",
			zap.String("request_id", requestID),
			zap.String("food_name", req.FoodName),
			zap.String("mode", req.Mode),
		)

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		events := make(chan progress.Event, 16)
		go func() {
			defer close(events)
			engine.ResolveStream(c.Request.Context(), coreanalysis.Request{
				FoodName:    req.FoodName,
				Diseases:    req.Diseases,
				Medicines:   req.Medicines,
				Mode:        common.AnalysisMode(req.Mode),
				RequesterID: req.UserID,
			}, func(ev progress.Event) {
				events <- ev
			})
		}()

		c.Stream(func(w io.Writer) bool {
			ev, ok := <-events
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		})
	}
}

// mapError 將引擎錯誤對應到 HTTP 狀態碼與對外訊息
func mapError(err error) (int, string) {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return ce.Status, ce.Message
	}
	return http.StatusInternalServerError, "服務器內部錯誤"
}
