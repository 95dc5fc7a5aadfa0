package realtime

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/clinicdesk/agenda-core/internal/config"
	"github.com/clinicdesk/agenda-core/internal/core/ports/in"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/debounce"
	"github.com/clinicdesk/agenda-core/internal/observability/metrics"
)

// ChangeEvent is one row-change notification from the central database's
// outbox. Only the table name matters here: any change to scheduling data
// means the visible grid may be stale.
type ChangeEvent struct {
	Table     string `json:"table"`
	EventType string `json:"eventType"`
}

// ChangeListener consumes change events and refetches the visible window
// after the burst settles. A busy front desk generates many events per
// second; the debouncer collapses them into one refetch.
type ChangeListener struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	useCase   in.ScheduleGridUseCase
	debouncer *debounce.Debouncer
	cfg       *config.Config
	logger    out.LoggerPort
}

func NewChangeListener(useCase in.ScheduleGridUseCase, cfg *config.Config, logger out.LoggerPort) (*ChangeListener, error) {
	logger = logger.WithModule("ChangeListener")

	if !cfg.RabbitMQ.Enabled {
		logger.Info("rabbitmq.disabled", out.LogFields{
			"message": "RabbitMQ is disabled, listener will not be started",
		})
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("rabbitmq.connect.failed", out.LogFields{
			"error": err.Error(),
			"url":   cfg.RabbitMQ.URL,
		})
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		logger.Error("rabbitmq.channel.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	l := &ChangeListener{
		conn:    conn,
		channel: channel,
		useCase: useCase,
		cfg:     cfg,
		logger:  logger,
	}
	l.debouncer = debounce.New(time.Duration(cfg.RabbitMQ.DebounceMs)*time.Millisecond, l.refresh)

	return l, nil
}

func (l *ChangeListener) Start(ctx context.Context) error {
	queue, err := l.channel.QueueDeclare(
		l.cfg.RabbitMQ.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	msgs, err := l.channel.Consume(
		queue.Name,
		"",   // consumer
		true, // auto-ack: a lost event costs one refetch, not data
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					l.logger.Warn("rabbitmq.channel.closed", nil)
					return
				}
				l.handleMessage(msg)
			}
		}
	}()

	l.logger.Info("rabbitmq.listening", out.LogFields{
		"queue": queue.Name,
	})
	return nil
}

func (l *ChangeListener) handleMessage(msg amqp.Delivery) {
	var event ChangeEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		l.logger.Warn("realtime.event.decode_failed", out.LogFields{
			"error": err.Error(),
		})
		return
	}

	if !l.Relevant(event) {
		return
	}

	metrics.ChangeEventsReceived.Inc()
	l.debouncer.Trigger()
}

// Relevant reports whether an event can affect what the grid shows.
func (l *ChangeListener) Relevant(event ChangeEvent) bool {
	switch event.Table {
	case "appointments", "schedule_blocks":
		return true
	}
	return false
}

func (l *ChangeListener) refresh() {
	if err := l.useCase.RefreshVisible(context.Background()); err != nil {
		l.logger.Warn("realtime.refresh.failed", out.LogFields{
			"error": err.Error(),
		})
	}
}

func (l *ChangeListener) Stop() error {
	l.debouncer.Stop()
	if l.channel != nil {
		_ = l.channel.Close()
	}
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
