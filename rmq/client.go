package rmq

import (
	"haidetect.com/hai/logger"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"net/url"
)

type Config struct {
	Host               string `envconfig:"HAI_RMQ_HOST" required:"true"`
	Port               string `envconfig:"HAI_RMQ_PORT" default:"5672"`
	Username           string `envconfig:"HAI_RMQ_USERNAME" required:"true"`
	Password           string `envconfig:"HAI_RMQ_PASSWORD" required:"true"`
	VHost              string `envconfig:"HAI_RMQ_VHOST" default:""`
	Exchange           string `envconfig:"HAI_RMQ_EXCHANGE" default:"hai-default-exchange"`
	Prefetch           int    `envconfig:"HAI_RMQ_MAX_PARALLEL_REQUESTS" default:"5"`
	HAITaskQueue       string `envconfig:"HAI_RMQ_TASK_QUEUE" default:"hai-tasks"`
	SequencerTaskQueue string `envconfig:"HAI_RMQ_SEQUENCER_QUEUE" default:"sequencer-tasks"`
}

// Client consumes HAI tasks and publishes sequencer notifications on
// separate connections.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	rmqLogger      zerolog.Logger
}

func ReadConfig() (Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func NewClient() (*Client, error) {
	rmqLogger := logger.NewLogger("RMQ client")
	config, err := ReadConfig()
	if err != nil {
		rmqLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	address := URL(config)
	respConn, respChannel, err := dial(address)
	if err != nil {
		return nil, fmt.Errorf("failed response connection: %w", err)
	}
	reqConn, reqChannel, err := dial(address)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed request connection: %w", err)
	}
	deliveries, err := consume(reqChannel, config)
	if err != nil {
		_ = respConn.Close()
		_ = reqConn.Close()
		return nil, err
	}
	rmqLogger.Info().
		Str("queue", config.HAITaskQueue).
		Int("prefetch", config.Prefetch).
		Msg("Consuming HAI tasks")

	return &Client{
		Deliveries:     deliveries,
		ReqChanErrors:  reqChannel.NotifyClose(make(chan *amqp.Error, 1)),
		RespChanErrors: respChannel.NotifyClose(make(chan *amqp.Error, 1)),
		config:         config,
		reqConn:        reqConn,
		respConn:       respConn,
		respChannel:    respChannel,
		rmqLogger:      rmqLogger,
	}, nil
}

func (c *Client) SendMessageToSequencer(msg amqp.Publishing) error {
	c.rmqLogger.Debug().Str("queue", c.config.SequencerTaskQueue).Msg("Publishing to sequencer")
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.SequencerTaskQueue,
		false,
		false,
		msg,
	)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func URL(config Config) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(config.Username, config.Password),
		Host:   fmt.Sprintf("%s:%s", config.Host, config.Port),
		Path:   "/" + config.VHost,
	}
	return u.String()
}

func consume(ch *amqp.Channel, config Config) (<-chan amqp.Delivery, error) {
	q, err := ch.QueueDeclarePassive(
		config.HAITaskQueue, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", config.HAITaskQueue, err)
	}
	if err = ch.QueueBind(q.Name, q.Name, config.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind %s: %w", q.Name, err)
	}
	if err = ch.Qos(config.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	return deliveries, nil
}

func dial(address string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(address)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
