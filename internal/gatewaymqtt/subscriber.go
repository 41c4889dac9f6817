package gatewaymqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"beacon-guardian/internal/config"
	"beacon-guardian/internal/services"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Receiver is the ingestion entry point messages are fed into.
type Receiver interface {
	Receive(ctx context.Context, req services.SignalRequest) (services.SignalResult, error)
}

// Subscriber consumes gateway signals published to the broker.
type Subscriber struct {
	cfg      config.MQTTConfig
	receiver Receiver
	logger   *zap.Logger
	timeout  time.Duration
}

func NewSubscriber(cfg config.MQTTConfig, receiver Receiver, logger *zap.Logger) *Subscriber {
	return &Subscriber{cfg: cfg, receiver: receiver, logger: logger, timeout: 30 * time.Second}
}

// Run connects, subscribes and blocks until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
	}
	if s.cfg.Password != "" {
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn("MQTT connection lost", zap.Error(err))
	})
	// Resubscribe on every (re)connect; clean sessions drop subscriptions.
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		token := client.Subscribe(s.cfg.Topic, s.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			s.handle(ctx, msg.Topic(), msg.Payload())
		})
		if token.Wait() && token.Error() != nil {
			s.logger.Error("MQTT subscribe failed", zap.String("topic", s.cfg.Topic), zap.Error(token.Error()))
			return
		}
		s.logger.Info("MQTT subscribed", zap.String("topic", s.cfg.Topic), zap.Uint8("qos", s.cfg.QoS))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	<-ctx.Done()
	client.Unsubscribe(s.cfg.Topic).WaitTimeout(time.Second)
	client.Disconnect(250)
	s.logger.Info("MQTT subscriber stopped")
	return nil
}

func (s *Subscriber) handle(ctx context.Context, topic string, payload []byte) {
	log := s.logger.With(zap.String("topic", topic))
	var req services.SignalRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Warn("Dropping malformed gateway message", zap.Error(err))
		return
	}
	if strings.TrimSpace(req.GatewayID) == "" {
		req.GatewayID = gatewayFromTopic(topic)
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.receiver.Receive(reqCtx, req)
	if err != nil {
		log.Warn("Gateway message rejected", zap.String("mac_address", req.MacAddress), zap.Error(err))
		return
	}
	log.Debug("Gateway message ingested", zap.String("log_id", result.LogID), zap.Bool("alert_triggered", result.AlertTriggered))
}

// gatewayFromTopic returns the segment after "gateways" in topics like gateways/<serial>/signals.
func gatewayFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "gateways" {
			return parts[i+1]
		}
	}
	return ""
}
