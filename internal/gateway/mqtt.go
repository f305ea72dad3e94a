// Package gateway bridges the controller's decoded radio packets to an
// MQTT broker and routes inbound command topics back to encoded packets.
package gateway

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
	"github.com/dduransseau/enocean2mqtt/internal/config"
	"github.com/dduransseau/enocean2mqtt/internal/logging"
)

// MQTTClient is the narrow surface the gateway needs from a broker
// connection (Connect/Disconnect/Publish/Subscribe/IsConnected) so tests
// can substitute a fake without a live broker.
type MQTTClient interface {
	Connect() error
	Disconnect()
	Publish(topic string, payload []byte, retain bool) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	IsConnected() bool
}

// PahoClient wraps github.com/eclipse/paho.mqtt.golang behind MQTTClient,
// the real backend for the gateway's MQTT glue.
type PahoClient struct {
	client mqtt.Client
	qos    byte
}

// NewPahoClient builds a paho client from cfg. It does not connect; call
// Connect.
func NewPahoClient(cfg config.MQTTConfig) *PahoClient {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(cfg.CleanSession)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logging.Warn("gateway: mqtt connection lost", "err", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logging.Info("gateway: mqtt connected", "broker", cfg.Broker)
	})

	return &PahoClient{client: mqtt.NewClient(opts), qos: cfg.QoS}
}

// Connect blocks until the broker connection completes or fails.
func (p *PahoClient) Connect() error {
	token := p.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransportFailure, "mqtt connect")
	}
	return nil
}

// Disconnect gracefully closes the broker connection.
func (p *PahoClient) Disconnect() {
	p.client.Disconnect(250)
}

// Publish sends payload to topic at the client's configured QoS.
func (p *PahoClient) Publish(topic string, payload []byte, retain bool) error {
	token := p.client.Publish(topic, p.qos, retain, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return apperrors.New(apperrors.CodeTransportFailure, "mqtt publish timed out: "+topic)
	}
	if err := token.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransportFailure, "mqtt publish "+topic)
	}
	return nil
}

// Subscribe registers handler for topic.
func (p *PahoClient) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := p.client.Subscribe(topic, p.qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransportFailure, "mqtt subscribe "+topic)
	}
	return nil
}

// IsConnected reports the live broker connection state.
func (p *PahoClient) IsConnected() bool { return p.client.IsConnected() }
