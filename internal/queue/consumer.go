package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartMeasurementConsumer connects to RabbitMQ, declares the durable
// measurement.recorded queue and consumes it, appending one line per
// measurement to logs/measurements.log. It runs a reconnect loop with
// backoff and never returns under normal operation; processing errors are
// logged and the message rejected without requeue so a poison message cannot
// wedge the consumer.
func StartMeasurementConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("measurement-consumer: dial failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn); err != nil {
			log.Printf("measurement-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("measurement-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(MeasurementQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(MeasurementQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("measurement-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev MeasurementRecordedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "measurements.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	fmt.Fprintf(&b, "%s mac=%s device=%s user=%s", ev.RecordedAt, ev.MAC, ev.DeviceID, ev.UserID)
	if ev.Temperature != nil {
		fmt.Fprintf(&b, " temp=%.2f", *ev.Temperature)
	}
	if ev.CO2 != nil {
		fmt.Fprintf(&b, " co2=%.0f", *ev.CO2)
	}
	if ev.Humidity != nil {
		fmt.Fprintf(&b, " humidity=%.1f", *ev.Humidity)
	}
	b.WriteString("\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}
