package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

const CatalogTopic = "catalog-events"

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
	Topic string   `envconfig:"KAFKA_TOPIC" default:"catalog-events"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) != 0
}

type EventType string

const (
	EventBookAdded    EventType = "BOOK_ADDED"
	EventBookUpdated  EventType = "BOOK_UPDATED"
	EventBookDeleted  EventType = "BOOK_DELETED"
	EventBookBorrowed EventType = "BOOK_BORROWED"
	EventBookReturned EventType = "BOOK_RETURNED"
)

type EventInventory struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   EventType `json:"eventType"`
	BookID      string    `json:"bookId,omitempty"`
	LoanID      string    `json:"loanId,omitempty"`
	BookTitle   string    `json:"bookTitle,omitempty"`
	StudentName string    `json:"studentName,omitempty"`
}

func NewAsyncProducer(cfg Config) (sarama.AsyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForLocal
	defaultCfg.Producer.Return.Successes = false
	defaultCfg.Producer.Return.Errors = true

	return sarama.NewAsyncProducer(cfg.Addrs, defaultCfg)
}
