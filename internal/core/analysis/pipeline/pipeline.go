package pipeline

import (
	"context"
	"net/http"
	"time"

	"food-analyzer/internal/core/analysis/progress"
	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NutritionProvider 營養成分查詢
type NutritionProvider interface {
	QueryByName(ctx context.Context, name string) ([]common.NutritionRow, error)
}

// ProductProvider 健康食品 / 管制產品查詢
type ProductProvider interface {
	QueryByName(ctx context.Context, name string) ([]common.ProductRow, error)
}

// RecipeProvider 料理建議查詢
type RecipeProvider interface {
	QueryRecipes(ctx context.Context, food string) ([]common.RecipeRow, error)
}

// GenerativeProvider 生成式分析服務
type GenerativeProvider interface {
	AnalyzeComponents(ctx context.Context, food string, diseases []string, facts Facts) (*common.ComponentBreakdown, error)
	AnalyzeInteractions(ctx context.Context, food string, breakdown *common.ComponentBreakdown, medicines, diseases []string) (*common.InteractionReport, error)
	SynthesizeFinal(ctx context.Context, food string, breakdown *common.ComponentBreakdown, report *common.InteractionReport, recipes []common.RecipeRow, diseases []string, degraded []string) (*common.FinalAnalysis, error)
}

// Facts 第一階段收集到的補充事實
// 任一來源失敗時對應欄位為空，由 Degraded 記錄來源名稱
type Facts struct {
	Nutrition []common.NutritionRow
	Products  []common.ProductRow
}

// Outcome 管線的完整產出
type Outcome struct {
	Final     *common.FinalAnalysis     `json:"final"`
	Breakdown *common.ComponentBreakdown `json:"breakdown"`
	Report    *common.InteractionReport  `json:"report"`
	Recipes   []common.RecipeRow         `json:"recipes"`
	Degraded  []string                   `json:"degraded,omitempty"` // 降級的來源：nutrition / product / recipes
}

// Pipeline 外部分析管線，只在規則表與快取都未命中時執行
type Pipeline struct {
	nutrition    NutritionProvider
	product      ProductProvider
	generative   GenerativeProvider
	recipe       RecipeProvider
	stageTimeout time.Duration
}

// New 創建分析管線
func New(nutrition NutritionProvider, product ProductProvider, generative GenerativeProvider, recipe RecipeProvider, stageTimeout time.Duration) *Pipeline {
	if stageTimeout <= 0 {
		stageTimeout = 60 * time.Second
	}
	return &Pipeline{
		nutrition:    nutrition,
		product:      product,
		generative:   generative,
		recipe:       recipe,
		stageTimeout: stageTimeout,
	}
}

// Run 依序執行五個階段
//
// 1. 事實收集（營養 ∥ 管制產品，失敗僅降級）
// 2. 成分分析（致命）
// 3. 交互作用分析（致命）—— 與 4. 料理建議（失敗僅降級）並行
// 5. 最終總結（致命），明確告知前面哪些來源降級，讓總結自行補償
//
// 致命階段失敗以 common.ErrCodePipelineFailure 包裝後回傳。
func (p *Pipeline) Run(ctx context.Context, food string, diseases, medicines []string, em *progress.Emitter) (*Outcome, error) {
	started := time.Now()
	out := &Outcome{}

	// 階段一：並行收集補充事實，單一來源失敗不會中止管線
	em.StageLoading(progress.StageFacts)
	facts := p.gatherFacts(ctx, food, out)
	em.StageComplete(progress.StageFacts)

	// 階段二：成分分析，依賴階段一產出
	em.StageLoading(progress.StageComponents)
	breakdown, err := p.analyzeComponents(ctx, food, diseases, facts)
	if err != nil {
		return nil, err
	}
	out.Breakdown = breakdown
	em.StageComplete(progress.StageComponents)
	em.Partial(progress.StageComponents, breakdown)

	// 階段三 ∥ 階段四：交互作用分析與料理建議互不依賴
	em.StageLoading(progress.StageInteractions)
	em.StageLoading(progress.StageRecipes)
	report, err := p.interactionsAndRecipes(ctx, food, breakdown, medicines, diseases, out, em)
	if err != nil {
		return nil, err
	}
	out.Report = report
	em.StageComplete(progress.StageInteractions)
	em.Partial(progress.StageInteractions, report)

	// 階段五：最終總結，依賴三、四的產出與降級旗標
	em.StageLoading(progress.StageSynthesis)
	final, err := p.synthesize(ctx, food, breakdown, report, out, diseases)
	if err != nil {
		return nil, err
	}
	out.Final = final
	em.StageComplete(progress.StageSynthesis)

	common.LogInfo("分析管線完成",
		zap.String("食物", food),
		zap.Int("分數", final.Score),
		zap.Strings("降級來源", out.Degraded),
		zap.Duration("耗時", time.Since(started)),
	)
	return out, nil
}

// gatherFacts 階段一：營養與管制產品並行查詢
func (p *Pipeline) gatherFacts(ctx context.Context, food string, out *Outcome) Facts {
	var facts Facts
	g, gctx := errgroup.WithContext(ctx)

	var nutritionErr, productErr error
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, p.stageTimeout)
		defer cancel()
		rows, err := p.nutrition.QueryByName(callCtx, food)
		if err != nil {
			nutritionErr = err
			return nil // 降級，不中止
		}
		facts.Nutrition = rows
		return nil
	})
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, p.stageTimeout)
		defer cancel()
		rows, err := p.product.QueryByName(callCtx, food)
		if err != nil {
			productErr = err
			return nil // 降級，不中止
		}
		facts.Products = rows
		return nil
	})
	_ = g.Wait()

	if nutritionErr != nil {
		out.Degraded = append(out.Degraded, "nutrition")
		common.LogWarn("營養查詢降級",
			zap.String("食物", food),
			zap.Error(nutritionErr),
		)
	}
	if productErr != nil {
		out.Degraded = append(out.Degraded, "product")
		common.LogWarn("管制產品查詢降級",
			zap.String("食物", food),
			zap.Error(productErr),
		)
	}
	return facts
}

// analyzeComponents 階段二：成分分析
func (p *Pipeline) analyzeComponents(ctx context.Context, food string, diseases []string, facts Facts) (*common.ComponentBreakdown, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	breakdown, err := p.generative.AnalyzeComponents(callCtx, food, diseases, facts)
	if err != nil {
		return nil, common.NewError(common.ErrCodePipelineFailure, "成分分析失敗", http.StatusBadGateway, err)
	}
	return breakdown, nil
}

// interactionsAndRecipes 階段三與階段四並行執行
// 交互作用失敗是致命的；料理建議失敗只降級，由總結階段自行補寫通用建議
func (p *Pipeline) interactionsAndRecipes(ctx context.Context, food string, breakdown *common.ComponentBreakdown, medicines, diseases []string, out *Outcome, em *progress.Emitter) (*common.InteractionReport, error) {
	var report *common.InteractionReport
	var recipeErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, p.stageTimeout)
		defer cancel()
		r, err := p.generative.AnalyzeInteractions(callCtx, food, breakdown, medicines, diseases)
		if err != nil {
			return common.NewError(common.ErrCodePipelineFailure, "交互作用分析失敗", http.StatusBadGateway, err)
		}
		report = r
		return nil
	})
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, p.stageTimeout)
		defer cancel()
		rows, err := p.recipe.QueryRecipes(callCtx, food)
		if err != nil {
			recipeErr = err
			return nil // 降級，不中止
		}
		out.Recipes = rows
		em.StageComplete(progress.StageRecipes)
		em.Partial(progress.StageRecipes, rows)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if recipeErr != nil {
		out.Degraded = append(out.Degraded, "recipes")
		em.StageComplete(progress.StageRecipes)
		common.LogWarn("料理建議查詢降級",
			zap.String("食物", food),
			zap.Error(recipeErr),
		)
	}
	return report, nil
}

// synthesize 階段五：最終總結
func (p *Pipeline) synthesize(ctx context.Context, food string, breakdown *common.ComponentBreakdown, report *common.InteractionReport, out *Outcome, diseases []string) (*common.FinalAnalysis, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	final, err := p.generative.SynthesizeFinal(callCtx, food, breakdown, report, out.Recipes, diseases, out.Degraded)
	if err != nil {
		return nil, common.NewError(common.ErrCodePipelineFailure, "最終總結失敗", http.StatusBadGateway, err)
	}
	return final, nil
}
