package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"food-analyzer/internal/core/analysis/cache"
	"food-analyzer/internal/core/analysis/canonical"
	"food-analyzer/internal/core/analysis/fingerprint"
	"food-analyzer/internal/core/analysis/pipeline"
	"food-analyzer/internal/core/analysis/progress"
	"food-analyzer/internal/core/analysis/rule"
	"food-analyzer/internal/core/analysis/score"
	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// Engine 分層解析引擎
//
// 解析順序：規則表 → 指紋快取 → 外部分析管線。
// 同一指紋的昂貴計算最多執行一次：快取層靠 first-writer-wins 寫入，
// 行程內再以 inflight 表讓同時抵達的請求等候第一個計算者
type Engine struct {
	rules        *rule.Table
	cache        cache.Store
	records      score.RecordStore
	pipe         *pipeline.Pipeline
	totalTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

// inflightCall 進行中的管線計算，等候者在 done 關閉後重讀快取
type inflightCall struct {
	done chan struct{}
	err  error
}

// NewEngine 創建解析引擎
func NewEngine(rules *rule.Table, cacheStore cache.Store, records score.RecordStore, pipe *pipeline.Pipeline, totalTimeout time.Duration) *Engine {
	if totalTimeout <= 0 {
		totalTimeout = 3 * time.Minute
	}
	return &Engine{
		rules:        rules,
		cache:        cacheStore,
		records:      records,
		pipe:         pipe,
		totalTimeout: totalTimeout,
		inflight:     make(map[string]*inflightCall),
	}
}

// Resolve 同步解析入口
func (e *Engine) Resolve(ctx context.Context, req Request) (*Result, error) {
	return e.resolve(ctx, req, nil)
}

// ResolveStream 串流解析入口：以進度事件回報各階段，最後以 result
// 或 error 事件收尾。底層解析邏輯與 Resolve 完全相同
func (e *Engine) ResolveStream(ctx context.Context, req Request, emit func(progress.Event)) {
	em := progress.NewEmitter(emit)
	em.Start()

	result, err := e.resolve(ctx, req, em)
	if err != nil {
		em.Error(userFacingMessage(err))
		return
	}
	em.Result(result)
}

func (e *Engine) resolve(ctx context.Context, req Request, em *progress.Emitter) (*Result, error) {
	// 無效請求在任何 I/O 之前同步拒絕
	if err := req.Validate(); err != nil {
		return nil, err
	}
	mode, _ := common.ParseAnalysisMode(string(req.Mode))

	food := canonical.Canonicalize(req.FoodName)
	diseases := canonical.CanonicalSet(req.Diseases)
	medicines := canonical.CanonicalSet(req.Medicines)

	// 第一層：靜態規則表，零 I/O
	if entry, ok := e.rules.Lookup(food); ok {
		out := rule.Apply(entry, diseases, medicines)
		common.LogInfo("規則表命中",
			zap.String("食物", food),
			zap.Int("分數", out.Score),
		)
		e.appendRecord(ctx, food, diseases, mode, out.Score)
		return &Result{
			Score:        out.Score,
			Summary:      out.Summary,
			GoodPoints:   out.GoodPoints,
			BadPoints:    out.BadPoints,
			Warnings:     out.Warnings,
			ExpertAdvice: out.ExpertAdvice,
			SourceTier:   common.TierRule,
		}, nil
	}

	// 第二層：指紋快取
	fp := fingerprint.Compute(food, diseases, medicines, string(mode))
	if entry, err := e.cache.Get(ctx, fp); err == nil {
		common.LogCacheHit("fingerprint", fp)
		return cachedToResult(entry), nil
	} else if !errors.Is(err, common.ErrCacheMiss) {
		return nil, err
	}
	common.LogCacheMiss("fingerprint", fp)

	// 第三層：外部分析管線，行程內同指紋合流
	return e.computeOnce(ctx, fp, food, diseases, medicines, mode, em)
}

// computeOnce 保證同一指紋的管線計算在行程內最多同時存在一份
func (e *Engine) computeOnce(ctx context.Context, fp, food string, diseases, medicines []string, mode common.AnalysisMode, em *progress.Emitter) (*Result, error) {
	e.mu.Lock()
	if call, exists := e.inflight[fp]; exists {
		e.mu.Unlock()
		// 已有請求在計算同一指紋：等它完成後重讀現成條目
		select {
		case <-call.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if call.err != nil {
			return nil, call.err
		}
		entry, err := e.cache.Get(ctx, fp)
		if err != nil {
			return nil, err
		}
		return cachedToResult(entry), nil
	}

	call := &inflightCall{done: make(chan struct{})}
	e.inflight[fp] = call
	e.mu.Unlock()

	result, err := e.runPipeline(ctx, fp, food, diseases, medicines, mode, em)

	call.err = err
	close(call.done)
	e.mu.Lock()
	delete(e.inflight, fp)
	e.mu.Unlock()

	return result, err
}

// runPipeline 執行管線、對帳分數、寫入快取與分數記錄
func (e *Engine) runPipeline(ctx context.Context, fp, food string, diseases, medicines []string, mode common.AnalysisMode, em *progress.Emitter) (*Result, error) {
	// 與呼叫端的取消脫鉤：呼叫端斷線後計算仍跑完並寫入快取，
	// 結果對下一個相同請求依然有價值；只以總時長設上限
	pipeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.totalTimeout)
	defer cancel()

	outcome, err := e.pipe.Run(pipeCtx, food, diseases, medicines, em)
	if err != nil {
		common.LogError("分析管線失敗",
			zap.String("食物", food),
			zap.Error(err),
		)
		return nil, err
	}

	// 完整分析沿用先前快速分析的分數，兩種深度不能各說各話
	finalScore := score.Reconcile(pipeCtx, e.records, food, diseases, mode, outcome.Final.Score)
	outcome.Final.Score = finalScore

	detail, err := json.Marshal(outcome)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInternalError, "分析結果序列化失敗", 500, err)
	}

	entry := &cache.CachedResult{
		CanonicalFood: food,
		Score:         finalScore,
		Summary:       outcome.Final.Summary,
		Detail:        detail,
	}
	if err := e.cache.Put(pipeCtx, fp, entry); err != nil {
		if errors.Is(err, common.ErrCacheConflict) {
			// 另一個寫入者先完成：改讀現成條目，本次計算結果丟棄
			existing, getErr := e.cache.Get(pipeCtx, fp)
			if getErr != nil {
				return nil, getErr
			}
			return cachedToResult(existing), nil
		}
		return nil, err
	}

	e.appendRecord(pipeCtx, food, diseases, mode, finalScore)

	return &Result{
		Score:        finalScore,
		Summary:      outcome.Final.Summary,
		GoodPoints:   outcome.Final.GoodPoints,
		BadPoints:    outcome.Final.BadPoints,
		Warnings:     outcome.Final.Warnings,
		ExpertAdvice: outcome.Final.ExpertAdvice,
		SourceTier:   common.TierComputed,
		Degraded:     outcome.Degraded,
	}, nil
}

// appendRecord 留下分數記錄；記錄失敗不影響本次回應
func (e *Engine) appendRecord(ctx context.Context, food string, diseases []string, mode common.AnalysisMode, scoreValue int) {
	record := score.Record{
		CanonicalFood: food,
		Diseases:      diseases,
		Mode:          mode,
		Score:         scoreValue,
		RecordedAt:    time.Now(),
	}
	if err := e.records.Append(ctx, record); err != nil {
		common.LogWarn("分數記錄寫入失敗",
			zap.String("食物", food),
			zap.Error(err),
		)
	}
}

// cachedToResult 由快取條目組裝回應
func cachedToResult(entry *cache.CachedResult) *Result {
	result := &Result{
		Score:      entry.Score,
		Summary:    entry.Summary,
		SourceTier: common.TierCache,
		Cached:     true,
		HitCount:   entry.HitCount,
	}
	// 條目保存了完整分析文件，能還原就還原細節欄位
	var outcome pipeline.Outcome
	if err := json.Unmarshal(entry.Detail, &outcome); err == nil && outcome.Final != nil {
		result.GoodPoints = outcome.Final.GoodPoints
		result.BadPoints = outcome.Final.BadPoints
		result.Warnings = outcome.Final.Warnings
		result.ExpertAdvice = outcome.Final.ExpertAdvice
		result.Degraded = outcome.Degraded
	}
	return result
}

// userFacingMessage 對外只露出可安全重試的訊息
func userFacingMessage(err error) string {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return "分析暫時無法完成，請稍後再試"
}
