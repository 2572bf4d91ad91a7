package trade

import (
	"fmt"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
)

// ProductionStage is a step of the fabrication pipeline
type ProductionStage string

const (
	StageNewOrder       ProductionStage = "NEW_ORDER"
	StagePreparation    ProductionStage = "PREPARATION"
	StageProvisioning   ProductionStage = "PROVISIONING"
	StageCuttingWelding ProductionStage = "CUTTING_WELDING"
	StageAssembly       ProductionStage = "ASSEMBLY"
	StageInstallation   ProductionStage = "INSTALLATION"
	StageReady          ProductionStage = "READY"
)

var productionStages = []ProductionStage{
	StageNewOrder,
	StagePreparation,
	StageProvisioning,
	StageCuttingWelding,
	StageAssembly,
	StageInstallation,
	StageReady,
}

// ProductionStages returns the pipeline in order
func ProductionStages() []ProductionStage {
	stages := make([]ProductionStage, len(productionStages))
	copy(stages, productionStages)
	return stages
}

// Index returns the position of the stage in the pipeline, or -1
func (s ProductionStage) Index() int {
	for i, stage := range productionStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// IsValid checks if the stage is part of the pipeline
func (s ProductionStage) IsValid() bool {
	return s.Index() >= 0
}

// IsTerminal returns true for READY
func (s ProductionStage) IsTerminal() bool {
	return s == StageReady
}

// String returns the string representation of ProductionStage
func (s ProductionStage) String() string {
	return string(s)
}

// ProductionHistoryEntry records when the order entered a stage
type ProductionHistoryEntry struct {
	Stage     ProductionStage
	EnteredAt time.Time
}

// StageSpan is one row of the production timeline
type StageSpan struct {
	Stage      ProductionStage
	EnteredAt  time.Time
	LeftAt     *time.Time
	Duration   time.Duration // zero while in progress
	InProgress bool
	Elapsed    time.Duration // time spent so far, set for the open entry
}

// ProductionStateMachine moves orders through the production pipeline
type ProductionStateMachine struct{}

// NewProductionStateMachine creates a new ProductionStateMachine
func NewProductionStateMachine() *ProductionStateMachine {
	return &ProductionStateMachine{}
}

// Advance returns a copy of the order moved to the next stage. A signed
// contract becomes IN_PRODUCTION and reaching READY finishes the order.
func (m *ProductionStateMachine) Advance(order *Order, at time.Time) (*Order, error) {
	current, err := m.checkMovable(order, at)
	if err != nil {
		return nil, err
	}
	idx := current.Index()
	if idx >= len(productionStages)-1 {
		return nil, shared.NewDomainError("STAGE_OUT_OF_RANGE", fmt.Sprintf("Order is already at the final stage %s", current))
	}

	next := productionStages[idx+1]
	result := order.Clone()
	result.History = append(result.History, ProductionHistoryEntry{Stage: next, EnteredAt: at})

	prevStatus := result.Status
	if result.Status == OrderStatusContractSigned {
		result.Status = OrderStatusInProduction
	}
	if next == StageReady {
		result.Status = OrderStatusFinished
	}
	result.UpdatedAt = at

	result.AddDomainEvent(NewProductionStageChangedEvent(result, current, next, prevStatus, at))

	return result, nil
}

// Regress returns a copy of the order moved back one stage. The order
// status is left as it is.
func (m *ProductionStateMachine) Regress(order *Order, at time.Time) (*Order, error) {
	current, err := m.checkMovable(order, at)
	if err != nil {
		return nil, err
	}
	idx := current.Index()
	if idx <= 0 {
		return nil, shared.NewDomainError("STAGE_OUT_OF_RANGE", fmt.Sprintf("Order is already at the first stage %s", current))
	}

	prev := productionStages[idx-1]
	result := order.Clone()
	result.History = append(result.History, ProductionHistoryEntry{Stage: prev, EnteredAt: at})
	result.UpdatedAt = at

	result.AddDomainEvent(NewProductionStageChangedEvent(result, current, prev, result.Status, at))

	return result, nil
}

func (m *ProductionStateMachine) checkMovable(order *Order, at time.Time) (ProductionStage, error) {
	if order.IsCancelled() {
		return "", shared.NewDomainError("INVALID_STATE", "Cannot change production stage of a cancelled order")
	}
	current, ok := order.CurrentStage()
	if !ok {
		return "", shared.NewDomainError("INVALID_STATE", "Order has not been confirmed for production")
	}
	if !current.IsValid() {
		return "", shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Unknown production stage %s", current))
	}
	last := order.History[len(order.History)-1]
	if at.Before(last.EnteredAt) {
		return "", shared.NewDomainError("INVALID_INPUT", "Stage change cannot precede the last production entry")
	}
	return current, nil
}

// StageDurations returns the timeline of the order's production history.
// Each entry lasts until the next one starts; the last entry is in progress.
func (m *ProductionStateMachine) StageDurations(order *Order, now time.Time) []StageSpan {
	spans := make([]StageSpan, len(order.History))
	for i, entry := range order.History {
		span := StageSpan{Stage: entry.Stage, EnteredAt: entry.EnteredAt}
		if i < len(order.History)-1 {
			left := order.History[i+1].EnteredAt
			span.LeftAt = &left
			span.Duration = left.Sub(entry.EnteredAt)
		} else {
			span.InProgress = true
			if now.After(entry.EnteredAt) {
				span.Elapsed = now.Sub(entry.EnteredAt)
			}
		}
		spans[i] = span
	}
	return spans
}
