package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/pkg/kafka"
)

// enqueueTimeout bounds how long a mutation waits on a stalled producer.
const enqueueTimeout = 100 * time.Millisecond

var (
	ErrEventLogClosed = errors.New("event log closed")
	ErrEventDropped   = errors.New("producer busy, event dropped")
)

type eventLog struct {
	producer sarama.AsyncProducer
	topic    string

	mu     sync.RWMutex
	closed bool
}

// NewEventLog publishes inventory events to topic. Delivery errors are drained and logged.
func NewEventLog(producer sarama.AsyncProducer, topic string, log *zap.Logger) *eventLog {
	log = log.Named("events")
	go func() {
		for perr := range producer.Errors() {
			log.Warn("kafka produce", zap.String("topic", perr.Msg.Topic), zap.Error(perr.Err))
		}
	}()
	return &eventLog{
		producer: producer,
		topic:    topic,
	}
}

func (l *eventLog) Log(event kafka.EventInventory) error {
	if l == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: l.topic,
		Key:   sarama.StringEncoder(event.BookID),
		Value: sarama.ByteEncoder(data),
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrEventLogClosed
	}
	timer := time.NewTimer(enqueueTimeout)
	defer timer.Stop()
	select {
	case l.producer.Input() <- msg:
		return nil
	case <-timer.C:
		return ErrEventDropped
	}
}

// Close stops accepting events and closes the producer, flushing what is queued.
func (l *eventLog) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()
	return l.producer.Close()
}
