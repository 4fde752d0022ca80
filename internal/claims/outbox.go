package claims

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/propstack/claimsgo/internal/database"
	"github.com/propstack/claimsgo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmitInput describes a domain event to record in the outbox
type EmitInput struct {
	Type           string
	AggregateID    string
	IdempotencyKey *string
	Payload        map[string]interface{}
}

// emitTx records a domain event inside the caller's transaction. When an
// idempotency key is set and a row with that key already exists, the existing
// row is returned unmodified; a uniqueness conflict on concurrent emits
// resolves the same way, never as an error.
func emitTx(tx *gorm.DB, in EmitInput) (*models.OutboxEvent, error) {
	payload, err := json.Marshal(in.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}

	event := models.OutboxEvent{
		Type:           in.Type,
		AggregateID:    in.AggregateID,
		IdempotencyKey: in.IdempotencyKey,
		Payload:        payload,
		Status:         models.OutboxPending,
	}

	if in.IdempotencyKey == nil {
		if err := tx.Create(&event).Error; err != nil {
			return nil, err
		}
		return &event, nil
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(&event)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Lost the race (or the key was emitted earlier): return the survivor
		var existing models.OutboxEvent
		if err := tx.Where("idempotency_key = ?", *in.IdempotencyKey).First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}

	return &event, nil
}

// Emitter records domain events outside an orchestrator transaction
type Emitter struct {
	db *database.DB
}

// NewEmitter creates an outbox emitter
func NewEmitter(db *database.DB) *Emitter {
	return &Emitter{db: db}
}

// Emit durably records a domain event, idempotent on the key
func (e *Emitter) Emit(in EmitInput) (*models.OutboxEvent, error) {
	var event *models.OutboxEvent
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		event, txErr = emitTx(tx, in)
		return txErr
	})
	return event, err
}

const dispatchMaxRetries = 5

// EventSink receives dispatched events, e.g. the websocket hub fan-out
type EventSink func(event models.OutboxEvent) error

// Dispatcher advances PENDING outbox rows and hands them to a sink. Delivery
// beyond the sink is not its concern.
type Dispatcher struct {
	db        *database.DB
	sink      EventSink
	interval  time.Duration
	batchSize int
}

// NewDispatcher creates an outbox dispatcher
func NewDispatcher(db *database.DB, sink EventSink, interval time.Duration, batchSize int) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Dispatcher{db: db, sink: sink, interval: interval, batchSize: batchSize}
}

// Run polls the outbox until the context is cancelled
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DispatchPending(ctx); err != nil {
				log.Printf("⚠️ Outbox dispatch error: %v", err)
			}
		}
	}
}

// DispatchPending processes one batch of PENDING events
func (d *Dispatcher) DispatchPending(ctx context.Context) error {
	var events []models.OutboxEvent
	if err := d.db.WithContext(ctx).
		Where("status = ?", models.OutboxPending).
		Order("created_at ASC").
		Limit(d.batchSize).
		Find(&events).Error; err != nil {
		return err
	}

	for _, event := range events {
		if err := d.dispatchOne(ctx, event); err != nil {
			log.Printf("⚠️ Outbox: failed to dispatch event %s (%s): %v", event.ID, event.Type, err)
		}
	}
	return nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, event models.OutboxEvent) error {
	if d.sink != nil {
		if err := d.sink(event); err != nil {
			msg := err.Error()
			updates := map[string]interface{}{
				"retry_count": gorm.Expr("retry_count + 1"),
				"last_error":  &msg,
			}
			if event.RetryCount+1 >= dispatchMaxRetries {
				updates["status"] = models.OutboxFailed
			}
			return d.db.WithContext(ctx).Model(&models.OutboxEvent{}).
				Where("id = ?", event.ID).Updates(updates).Error
		}
	}

	now := time.Now().UTC()
	return d.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND status = ?", event.ID, models.OutboxPending).
		Updates(map[string]interface{}{
			"status":        models.OutboxDispatched,
			"dispatched_at": &now,
		}).Error
}
