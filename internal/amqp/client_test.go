package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type fakeAcknowledger struct {
	acks     int
	nacks    int
	requeues []bool
	err      error
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acks++
	return f.err
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.requeues = append(f.requeues, requeue)
	return f.err
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.err
}

func TestHandleDelivery(t *testing.T) {
	ctx := context.Background()
	client := &Client{}

	valid, err := NewExpenseEventMessage(ActionCreated, 1, 2, 1234, "Food").ToJSON()
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	t.Run("handled message is acked", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		client.handleDelivery(ctx, amqp091.Delivery{Acknowledger: ack, Body: valid},
			func(*ExpenseEventMessage) error { return nil })
		if ack.acks != 1 || ack.nacks != 0 {
			t.Errorf("acks=%d nacks=%d, want 1 ack", ack.acks, ack.nacks)
		}
	})

	t.Run("handler failure nacks with requeue", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		client.handleDelivery(ctx, amqp091.Delivery{Acknowledger: ack, Body: valid},
			func(*ExpenseEventMessage) error { return errors.New("db down") })
		if ack.nacks != 1 || len(ack.requeues) != 1 || !ack.requeues[0] {
			t.Errorf("nacks=%d requeues=%v, want one requeueing nack", ack.nacks, ack.requeues)
		}
	})

	t.Run("corrupt payload is dropped without requeue", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		client.handleDelivery(ctx, amqp091.Delivery{Acknowledger: ack, Body: []byte("{not json")},
			func(*ExpenseEventMessage) error { t.Fatal("handler must not run"); return nil })
		if ack.nacks != 1 || len(ack.requeues) != 1 || ack.requeues[0] {
			t.Errorf("nacks=%d requeues=%v, want one dropping nack", ack.nacks, ack.requeues)
		}
	})

	t.Run("failing acknowledger does not panic", func(t *testing.T) {
		ack := &fakeAcknowledger{err: errors.New("channel closed")}
		client.handleDelivery(ctx, amqp091.Delivery{Acknowledger: ack, Body: valid},
			func(*ExpenseEventMessage) error { return nil })
		if ack.acks != 1 {
			t.Errorf("acks=%d, want 1", ack.acks)
		}
	})
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{40, 30 * time.Second}, // shift overflow still capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"no route", errors.New("no route to host"), true},
		{"other error", errors.New("some other error"), false},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}
