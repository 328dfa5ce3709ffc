package worker

import (
	"haidetect.com/hai/rmq"
	"encoding/json"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type rmqTransactions interface {
	pingSequencer(task *Task, message Message) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, haiLogger *zerolog.Logger)
	getDeliveriesCh() <-chan amqp.Delivery
	getReqChanErrorsCh() <-chan *amqp.Error
	getRespChanErrorsCh() <-chan *amqp.Error
	close()
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.rmqClient.Close()
}

func (wrapper *rmqClientWrapper) getDeliveriesCh() <-chan amqp.Delivery {
	return wrapper.rmqClient.Deliveries
}

func (wrapper *rmqClientWrapper) getReqChanErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.ReqChanErrors
}

func (wrapper *rmqClientWrapper) getRespChanErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.RespChanErrors
}

func (wrapper *rmqClientWrapper) pingSequencer(task *Task, message Message) error {
	b, err := sequencerMessage(message)
	if err != nil {
		return err
	}
	return wrapper.rmqClient.SendMessageToSequencer(amqp.Publishing{
		ContentType:   task.delivery.ContentType,
		CorrelationId: task.delivery.CorrelationId,
		Body:          b,
	})
}

func sequencerMessage(message Message) ([]byte, error) {
	message.Sender = senderName
	return json.Marshal(message)
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// rejectDelivery requeues a delivery once; a redelivered message is dropped.
func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, haiLogger *zerolog.Logger) {
	requeue := !delivery.Redelivered
	if requeue {
		haiLogger.Info().Msg("Requeuing delivery as it has not been redelivered yet")
	} else {
		haiLogger.Info().Msg("Rejecting delivery as it already has been redelivered")
	}
	if err := delivery.Reject(requeue); err != nil {
		haiLogger.Err(err).Bool("requeue", requeue).Msg("Failed to reject delivery")
	}
}
