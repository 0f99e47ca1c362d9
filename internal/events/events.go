package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/riteshkumar/bank-ledger/internal/models"
)

// Event types
const (
	AccountRegistered = "account.registered"
	AccountRemoved    = "account.removed"

	TransactionRecorded = "transaction.recorded"

	LoanRequested = "loan.requested"
	LoanApproved  = "loan.approved"
	LoanRejected  = "loan.rejected"
)

// Stream names
const (
	AccountEventsStream     = "account.events"
	TransactionEventsStream = "transaction.events"
	LoanEventsStream        = "loan.events"
)

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type AccountRegisteredEvent struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

type AccountRemovedEvent struct {
	AccountID string `json:"account_id"`
}

type TransactionRecordedEvent struct {
	TransactionID string                 `json:"transaction_id"`
	AccountID     string                 `json:"account_id"`
	Type          models.TransactionType `json:"type"`
	Amount        int64                  `json:"amount"`
	NewBalance    int64                  `json:"new_balance"`
}

type LoanEvent struct {
	LoanID    string            `json:"loan_id"`
	AccountID string            `json:"account_id"`
	Amount    int64             `json:"amount"`
	Status    models.LoanStatus `json:"status"`
}

// Publisher appends domain events to Redis streams. A nil Publisher (or
// one built without a client) publishes nothing and returns nil, so the
// event stream stays optional wiring.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	if p == nil || p.client == nil {
		return nil
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
