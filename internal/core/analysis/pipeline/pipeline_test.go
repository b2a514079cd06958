package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"food-analyzer/internal/core/analysis/progress"
	"food-analyzer/internal/pkg/common"
)

type fakeNutrition struct {
	rows []common.NutritionRow
	err  error
}

func (f *fakeNutrition) QueryByName(ctx context.Context, name string) ([]common.NutritionRow, error) {
	return f.rows, f.err
}

type fakeProduct struct {
	rows []common.ProductRow
	err  error
}

func (f *fakeProduct) QueryByName(ctx context.Context, name string) ([]common.ProductRow, error) {
	return f.rows, f.err
}

type fakeRecipe struct {
	rows []common.RecipeRow
	err  error
}

func (f *fakeRecipe) QueryRecipes(ctx context.Context, food string) ([]common.RecipeRow, error) {
	return f.rows, f.err
}

type fakeGenerative struct {
	calls           int64
	componentsErr   error
	interactionsErr error
	synthesisErr    error
	seenDegraded    []string
}

func (f *fakeGenerative) AnalyzeComponents(ctx context.Context, food string, diseases []string, facts Facts) (*common.ComponentBreakdown, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.componentsErr != nil {
		return nil, f.componentsErr
	}
	return &common.ComponentBreakdown{
		Components: []common.Component{{Name: "鈉", Category: "礦物質"}},
		Summary:    "test breakdown",
	}, nil
}

func (f *fakeGenerative) AnalyzeInteractions(ctx context.Context, food string, breakdown *common.ComponentBreakdown, medicines, diseases []string) (*common.InteractionReport, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.interactionsErr != nil {
		return nil, f.interactionsErr
	}
	findings := make([]common.InteractionFinding, 0, len(medicines))
	for _, med := range medicines {
		findings = append(findings, common.InteractionFinding{Medicine: med, Risk: common.InteractionSafe})
	}
	return &common.InteractionReport{Findings: findings}, nil
}

func (f *fakeGenerative) SynthesizeFinal(ctx context.Context, food string, breakdown *common.ComponentBreakdown, report *common.InteractionReport, recipes []common.RecipeRow, diseases []string, degraded []string) (*common.FinalAnalysis, error) {
	atomic.AddInt64(&f.calls, 1)
	f.seenDegraded = append([]string(nil), degraded...)
	if f.synthesisErr != nil {
		return nil, f.synthesisErr
	}
	return &common.FinalAnalysis{Score: 58, Summary: "synthesized"}, nil
}

func newTestPipeline(n *fakeNutrition, p *fakeProduct, g *fakeGenerative, r *fakeRecipe) *Pipeline {
	return New(n, p, g, r, time.Second)
}

func TestRunAllStagesSucceed(t *testing.T) {
	gen := &fakeGenerative{}
	pipe := newTestPipeline(
		&fakeNutrition{rows: []common.NutritionRow{{Name: "kimchi stew"}}},
		&fakeProduct{},
		gen,
		&fakeRecipe{rows: []common.RecipeRow{{Title: "泡菜鍋"}}},
	)

	out, err := pipe.Run(context.Background(), "kimchi-stew", []string{"diabetes"}, []string{"metformin"}, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Final == nil || out.Final.Score != 58 {
		t.Fatalf("unexpected final: %+v", out.Final)
	}
	if len(out.Degraded) != 0 {
		t.Fatalf("unexpected degradations: %v", out.Degraded)
	}
	if len(out.Report.Findings) != 1 || out.Report.Findings[0].Medicine != "metformin" {
		t.Fatalf("unexpected report: %+v", out.Report)
	}
}

func TestRunNutritionFailureDegrades(t *testing.T) {
	gen := &fakeGenerative{}
	pipe := newTestPipeline(
		&fakeNutrition{err: context.DeadlineExceeded},
		&fakeProduct{rows: []common.ProductRow{{Name: "ok"}}},
		gen,
		&fakeRecipe{},
	)

	out, err := pipe.Run(context.Background(), "mystery-dish", nil, nil, nil)
	if err != nil {
		t.Fatalf("nutrition failure must not be fatal: %v", err)
	}
	if len(out.Degraded) != 1 || out.Degraded[0] != "nutrition" {
		t.Fatalf("degraded = %v, want [nutrition]", out.Degraded)
	}
	// 總結階段要看到降級旗標以便補償
	if len(gen.seenDegraded) != 1 || gen.seenDegraded[0] != "nutrition" {
		t.Fatalf("synthesis saw degraded = %v", gen.seenDegraded)
	}
}

func TestRunBothFactSourcesFailStillSucceeds(t *testing.T) {
	gen := &fakeGenerative{}
	pipe := newTestPipeline(
		&fakeNutrition{err: errors.New("down")},
		&fakeProduct{err: errors.New("down")},
		gen,
		&fakeRecipe{err: errors.New("down")},
	)

	out, err := pipe.Run(context.Background(), "mystery-dish", nil, nil, nil)
	if err != nil {
		t.Fatalf("degradable failures must not be fatal: %v", err)
	}
	got := append([]string(nil), out.Degraded...)
	sort.Strings(got)
	want := []string{"nutrition", "product", "recipes"}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("degraded = %v, want %v", got, want)
	}
}

func TestRunComponentsFailureFatal(t *testing.T) {
	gen := &fakeGenerative{componentsErr: errors.New("model unavailable")}
	pipe := newTestPipeline(&fakeNutrition{}, &fakeProduct{}, gen, &fakeRecipe{})

	_, err := pipe.Run(context.Background(), "mystery-dish", nil, nil, nil)
	if err == nil {
		t.Fatal("components failure must be fatal")
	}
	if !common.IsPipelineFailure(err) {
		t.Fatalf("expected pipeline failure, got %v", err)
	}
}

func TestRunInteractionsFailureFatal(t *testing.T) {
	gen := &fakeGenerative{interactionsErr: errors.New("model unavailable")}
	pipe := newTestPipeline(&fakeNutrition{}, &fakeProduct{}, gen, &fakeRecipe{})

	_, err := pipe.Run(context.Background(), "mystery-dish", nil, []string{"warfarin"}, nil)
	if !common.IsPipelineFailure(err) {
		t.Fatalf("expected pipeline failure, got %v", err)
	}
}

func TestRunSynthesisFailureFatal(t *testing.T) {
	gen := &fakeGenerative{synthesisErr: errors.New("model unavailable")}
	pipe := newTestPipeline(&fakeNutrition{}, &fakeProduct{}, gen, &fakeRecipe{})

	_, err := pipe.Run(context.Background(), "mystery-dish", nil, nil, nil)
	if !common.IsPipelineFailure(err) {
		t.Fatalf("expected pipeline failure, got %v", err)
	}
}

func TestRunEmitsOrderedStageEvents(t *testing.T) {
	gen := &fakeGenerative{}
	pipe := newTestPipeline(&fakeNutrition{}, &fakeProduct{}, gen, &fakeRecipe{})

	var events []progress.Event
	em := progress.NewEmitter(func(ev progress.Event) { events = append(events, ev) })
	em.Start()

	if _, err := pipe.Run(context.Background(), "mystery-dish", nil, nil, em); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	em.Result("done")

	if events[0].Type != progress.EventStart {
		t.Fatal("first event must be start")
	}
	last := events[len(events)-1]
	if last.Type != progress.EventResult {
		t.Fatalf("last event = %s, want result", last.Type)
	}

	// facts 的 loading 必須先於 complete，synthesis complete 必須在 result 之前
	idx := func(ty progress.EventType, stage progress.Stage, status progress.StageStatus) int {
		for i, ev := range events {
			if ev.Type == ty && ev.Stage == stage && ev.Status == status {
				return i
			}
		}
		return -1
	}
	if idx(progress.EventStage, progress.StageFacts, progress.StatusLoading) >= idx(progress.EventStage, progress.StageFacts, progress.StatusComplete) {
		t.Fatal("facts loading must precede complete")
	}
	if idx(progress.EventStage, progress.StageSynthesis, progress.StatusComplete) < 0 {
		t.Fatal("missing synthesis complete event")
	}
}
