package bus

import (
	"context"
	"encoding/json"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher pushes sample events to an MQTT broker at QoS 0.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	log    *slog.Logger
}

func NewMQTTPublisher(broker, clientID, topic string, log *slog.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &MQTTPublisher{client: c, topic: topic, log: log}, nil
}

func (p *MQTTPublisher) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("marshal failed", "err", err)
		return err
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
