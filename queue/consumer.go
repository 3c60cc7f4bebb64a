package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartReservationConsumer 連上 RabbitMQ 並持續消費預約事件，
// 目前的下游動作是寫結構化 log（通知信件的掛載點）。
// 內建重連迴圈，broker 掛掉不會拖垮主服務；處理失敗的訊息會 reject 掉
func StartReservationConsumer() {
	url := amqpURL()
	if url == "" {
		return
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // 連線成功後重置

		if err := consumeLoop(conn); err != nil {
			log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
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
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(reservationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(reservationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("reservation-consumer: handle message failed: %v", err)
			_ = d.Reject(false)
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

func handleMessage(body []byte) error {
	var event ReservationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	switch event.Kind {
	case EventReservationConfirmed:
		log.Printf("[event] reservation %d confirmed: student=%d lot=%q %s ~ %s cost=%s",
			event.ReservationID, event.StudentID, event.LotName, event.StartTime, event.EndTime, event.TotalCost)
	case EventReservationCancelled:
		log.Printf("[event] reservation %d cancelled: student=%d lot=%q",
			event.ReservationID, event.StudentID, event.LotName)
	case EventReservationCheckedIn:
		log.Printf("[event] reservation %d checked in: student=%d", event.ReservationID, event.StudentID)
	default:
		log.Printf("[event] unknown reservation event kind %q", event.Kind)
	}
	return nil
}
