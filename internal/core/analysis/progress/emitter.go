package progress

import (
	"sync"
)

// Stage 分析管線的階段名稱
type Stage string

const (
	StageFacts        Stage = "facts"        // 補充事實收集
	StageComponents   Stage = "components"   // 成分分析
	StageInteractions Stage = "interactions" // 藥物交互作用分析
	StageRecipes      Stage = "recipes"      // 料理建議
	StageSynthesis    Stage = "synthesis"    // 最終總結
)

// EventType 事件類型
type EventType string

const (
	EventStart   EventType = "start"
	EventStage   EventType = "stage"
	EventPartial EventType = "partial"
	EventResult  EventType = "result"
	EventError   EventType = "error"
)

// StageStatus 階段狀態
type StageStatus string

const (
	StatusLoading  StageStatus = "loading"
	StatusComplete StageStatus = "complete"
)

// Event 推送給呼叫端的單一事件
type Event struct {
	Type    EventType   `json:"type"`
	Stage   Stage       `json:"stage,omitempty"`
	Status  StageStatus `json:"status,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Emitter 單一請求的進度事件流
//
// 事件依發出順序送達，result / error 是終止事件且只會出現一次，
// 之後的事件一律丟棄。訂閱端消失時照常丟棄即可——
// 取消只對傳輸層有意義，底層計算仍會跑完並寫入快取。
// nil Emitter 的所有方法都是 no-op，管線不必判空。
type Emitter struct {
	mu     sync.Mutex
	sink   func(Event)
	closed bool
}

// NewEmitter 創建事件流，sink 為 nil 時回傳 nil（合法的 no-op emitter）
func NewEmitter(sink func(Event)) *Emitter {
	if sink == nil {
		return nil
	}
	return &Emitter{sink: sink}
}

// Start 發出起始事件
func (e *Emitter) Start() {
	e.emit(Event{Type: EventStart})
}

// StageLoading 標記階段開始
func (e *Emitter) StageLoading(stage Stage) {
	e.emit(Event{Type: EventStage, Stage: stage, Status: StatusLoading})
}

// StageComplete 標記階段完成
func (e *Emitter) StageComplete(stage Stage) {
	e.emit(Event{Type: EventStage, Stage: stage, Status: StatusComplete})
}

// Partial 推送階段完成時的中間結構，讓呼叫端可以先渲染
func (e *Emitter) Partial(stage Stage, payload interface{}) {
	e.emit(Event{Type: EventPartial, Stage: stage, Payload: payload})
}

// Result 發出成功終止事件並關閉事件流
func (e *Emitter) Result(payload interface{}) {
	e.terminate(Event{Type: EventResult, Payload: payload})
}

// Error 發出失敗終止事件並關閉事件流
func (e *Emitter) Error(message string) {
	e.terminate(Event{Type: EventError, Error: message})
}

func (e *Emitter) emit(ev Event) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.sink(ev)
}

func (e *Emitter) terminate(ev Event) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.sink(ev)
}
