package poller

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/storevia/storefront/internal/localstate"
)

// Poller consumes order-completed events published by the order backend
// and resets the client-local cart state for that user: the header badge
// goes to zero and any pending checkout payload is dropped. Everything
// here is best-effort; the next cart load is the real source of truth.
type Poller struct {
	state  localstate.Store
	reader *kafka.Reader
	log    *logrus.Logger
}

func NewPoller(state localstate.Store, log *logrus.Logger, brokers ...string) *Poller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-completed",
		GroupID:  "storefront-badge",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{state: state, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.consumeOne(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warnf("closing kafka reader: %v", err)
	}
}

func (p *Poller) consumeOne(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		p.log.Warnf("reading order-completed message: %v", err)
		return
	}
	p.handleMessage(ctx, m.Value)
}

func (p *Poller) handleMessage(ctx context.Context, value []byte) {
	var payload map[string]interface{}
	if err := json.Unmarshal(value, &payload); err != nil {
		p.log.Warnf("parsing order-completed message: %v", err)
		return
	}
	userEmail, ok := payload["user_email"].(string)
	if !ok || userEmail == "" {
		p.log.Warn("order-completed message missing user_email")
		return
	}

	if err := p.state.SetCartCount(ctx, userEmail, 0); err != nil {
		p.log.Warnf("resetting cart count for %s: %v", userEmail, err)
	}
	if err := p.state.ClearPendingCheckout(ctx, userEmail); err != nil {
		p.log.Warnf("clearing pending checkout for %s: %v", userEmail, err)
	}
}
