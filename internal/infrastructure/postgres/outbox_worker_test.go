package postgres

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestComputeNextRetry_Bounds(t *testing.T) {
	cases := []struct {
		attempt  int
		min, max time.Duration
	}{
		{-3, 4500 * time.Millisecond, 5500 * time.Millisecond},
		{0, 4500 * time.Millisecond, 5500 * time.Millisecond},
		{4, 14400 * time.Millisecond, 17600 * time.Millisecond},
		{20, 1620 * time.Second, 1980 * time.Second},
	}
	for _, tc := range cases {
		for i := 0; i < 50; i++ {
			d := computeNextRetry(tc.attempt)
			assert.GreaterOrEqual(t, d, tc.min, "attempt %d", tc.attempt)
			assert.LessOrEqual(t, d, tc.max, "attempt %d", tc.attempt)
		}
	}
}

func TestAwaitConfirm(t *testing.T) {
	t.Run("ack", func(t *testing.T) {
		confirms := make(chan amqp.Confirmation, 1)
		returns := make(chan amqp.Return, 1)
		confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
		assert.Empty(t, awaitConfirm(confirms, returns))
	})

	t.Run("nack", func(t *testing.T) {
		confirms := make(chan amqp.Confirmation, 1)
		returns := make(chan amqp.Return, 1)
		confirms <- amqp.Confirmation{DeliveryTag: 7, Ack: false}
		assert.Equal(t, "NACK: delivery_tag=7", awaitConfirm(confirms, returns))
	})

	t.Run("unroutable", func(t *testing.T) {
		confirms := make(chan amqp.Confirmation, 1)
		returns := make(chan amqp.Return, 1)
		returns <- amqp.Return{ReplyCode: 312, ReplyText: "NO_ROUTE", Exchange: "city.events", RoutingKey: "rsvp.created"}
		go func() {
			time.Sleep(20 * time.Millisecond)
			confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
		}()
		assert.Contains(t, awaitConfirm(confirms, returns), "NO_ROUTE: code=312")
	})

	t.Run("timeout", func(t *testing.T) {
		assert.Equal(t, "confirm timeout", awaitConfirm(make(chan amqp.Confirmation), make(chan amqp.Return)))
	})
}

func TestDrain(t *testing.T) {
	confirms := make(chan amqp.Confirmation, 3)
	returns := make(chan amqp.Return, 3)
	confirms <- amqp.Confirmation{}
	confirms <- amqp.Confirmation{}
	returns <- amqp.Return{}

	drain(confirms, returns)
	assert.Empty(t, confirms)
	assert.Empty(t, returns)
}
