package link

import (
	"context"
	"fmt"

	"wisefido-vitals/common/config"
	"wisefido-vitals/common/mqtt"

	"go.uber.org/zap"
)

// MQTTLink BLE→MQTT 网关：网关把传感器通知原样发布到 topic
type MQTTLink struct {
	cfg    config.MQTTConfig
	topic  string
	logger *zap.Logger
}

// NewMQTTLink 创建 MQTT 链路
func NewMQTTLink(cfg config.MQTTConfig, topic string, logger *zap.Logger) *MQTTLink {
	return &MQTTLink{cfg: cfg, topic: topic, logger: logger}
}

func (l *MQTTLink) Name() string {
	return "mqtt:" + l.topic
}

// Connect 连接 broker 并订阅 topic；paho 自动重连关闭，断线即结束本次 Session
func (l *MQTTLink) Connect(ctx context.Context, onNotify NotificationHandler) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess := newSession()
	client, err := mqtt.NewClient(&l.cfg, mqtt.Options{
		AutoReconnect:    false,
		OnConnectionLost: sess.lost,
	}, l.logger)
	if err != nil {
		return nil, err
	}
	sess.setCloser(func() error {
		client.Disconnect()
		return nil
	})

	err = client.Subscribe(l.topic, l.cfg.QoS, func(topic string, payload []byte) error {
		onNotify(payload)
		return nil
	})
	if err != nil {
		client.Disconnect()
		return nil, fmt.Errorf("mqtt link: %w", err)
	}

	l.logger.Info("Subscribed to sensor notifications",
		zap.String("broker", l.cfg.Broker),
		zap.String("topic", l.topic),
	)
	return sess, nil
}
