package queue

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectEmailSend is the NATS subject email tasks are published on.
	SubjectEmailSend = "email.send"
	// WorkerGroup is the queue group delivery workers subscribe with.
	WorkerGroup = "email-workers"
)

// EmailTask is one email to deliver, sent from the API to a worker
type EmailTask struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Publisher places email tasks on the queue
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher initializes a publisher over an established connection
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// PublishEmail enqueues one delivery task. The task is handed to the
// broker; delivery itself happens later in a worker.
func (p *Publisher) PublishEmail(task EmailTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode email task: %w", err)
	}
	if err := p.nc.Publish(SubjectEmailSend, data); err != nil {
		return fmt.Errorf("failed to publish email task: %w", err)
	}
	return nil
}
