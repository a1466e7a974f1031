package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flood-prediction-api/config"
	"flood-prediction-api/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// AlertPublisher delivers a flood alert to one sink.
type AlertPublisher interface {
	Name() string
	PublishAlert(ctx context.Context, alert models.FloodAlert) error
}

// RedisAlertPublisher publishes alerts on a Redis pub/sub channel, which
// also feeds the /ws/alerts stream.
type RedisAlertPublisher struct {
	cache   *CacheService
	channel string
}

func NewRedisAlertPublisher(cache *CacheService, channel string) *RedisAlertPublisher {
	return &RedisAlertPublisher{cache: cache, channel: channel}
}

func (p *RedisAlertPublisher) Name() string { return "redis" }

func (p *RedisAlertPublisher) PublishAlert(ctx context.Context, alert models.FloodAlert) error {
	return p.cache.Publish(ctx, p.channel, alert)
}

const mqttAlertQoS = 1

type MQTTAlertPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTTAlertPublisher connects to the broker and returns a publisher for
// cfg.Topic. Alerts are retained so late subscribers see the latest one.
func NewMQTTAlertPublisher(cfg config.MQTTConfig, logger *logrus.Logger) (*MQTTAlertPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.URL)
	opts.SetClientID(cfg.ClientID + "-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.OnConnect = func(client mqtt.Client) {
		logger.WithField("broker", cfg.URL).Info("mqtt connected")
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.WithError(err).Warn("mqtt connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.URL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.URL, err)
	}

	return newMQTTAlertPublisher(client, cfg.Topic), nil
}

func newMQTTAlertPublisher(client mqtt.Client, topic string) *MQTTAlertPublisher {
	return &MQTTAlertPublisher{client: client, topic: topic}
}

func (p *MQTTAlertPublisher) Name() string { return "mqtt" }

func (p *MQTTAlertPublisher) PublishAlert(ctx context.Context, alert models.FloodAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, mqttAlertQoS, true, data)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish to %s: %w", p.topic, ctx.Err())
	}
}

func (p *MQTTAlertPublisher) Close() {
	p.client.Disconnect(250)
}

var errNoPublishers = errors.New("no alert publishers configured")

// publishAll sends alert to every publisher. Failures are counted per sink
// and joined; one failing sink does not stop the others.
func publishAll(ctx context.Context, publishers []AlertPublisher, alert models.FloodAlert, timeout time.Duration, logger *logrus.Logger) error {
	if len(publishers) == 0 {
		return errNoPublishers
	}

	var errs []error
	for _, pub := range publishers {
		pubCtx, cancel := context.WithTimeout(ctx, timeout)
		err := pub.PublishAlert(pubCtx, alert)
		cancel()
		if err != nil {
			alertsFailed.WithLabelValues(pub.Name()).Inc()
			logger.WithError(err).WithFields(logrus.Fields{
				"sink":     pub.Name(),
				"alert_id": alert.ID,
			}).Error("flood alert publish failed")
			errs = append(errs, fmt.Errorf("%s: %w", pub.Name(), err))
			continue
		}
		alertsPublished.WithLabelValues(pub.Name()).Inc()
	}
	return errors.Join(errs...)
}
