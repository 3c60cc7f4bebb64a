package queue

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const reservationQueueName = "reservation.events"

// amqpURL 回傳佇列連線字串；未設定代表不啟用事件發布
func amqpURL() string {
	if url := os.Getenv("AMQP_URL"); url != "" {
		return url
	}
	return os.Getenv("RABBITMQ_URL")
}

// Enabled 是否有設定訊息佇列
func Enabled() bool {
	return amqpURL() != ""
}

// PublishReservationEvent 發布預約生命週期事件。
// 發布失敗只記 log，不會中斷主要的請求流程；未設定 AMQP_URL 時直接略過
func PublishReservationEvent(event ReservationEvent) {
	if !Enabled() {
		return
	}

	conn, err := amqp.Dial(amqpURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return
	}
	defer func() { _ = ch.Close() }()

	// 宣告佇列（冪等）。durable，訊息在 broker 重啟後仍保留
	if _, err := ch.QueueDeclare(
		reservationQueueName, // name
		true,                 // durable
		false,                // autoDelete
		false,                // exclusive
		false,                // noWait
		nil,                  // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                   // default exchange
		reservationQueueName, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
	}
}
