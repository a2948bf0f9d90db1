// Package mqtt owns the broker connection for the telemetry intake topic.
package mqtt

import (
	"context"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Options struct {
	BrokerURL string
	ClientID  string
	Topic     string
	QoS       byte
	Username  string
	Password  string
	Logger    *log.Logger
}

// BuildClient wires the subscription handler and reconnect behavior. The
// subscription is re-established inside OnConnect so it survives broker
// restarts.
func BuildClient(o Options, h mqtt.MessageHandler) mqtt.Client {
	opts := mqtt.NewClientOptions().
		AddBroker(o.BrokerURL).
		SetClientID(o.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if o.Username != "" {
		opts.SetUsername(o.Username)
	}
	if o.Password != "" {
		opts.SetPassword(o.Password)
	}

	opts.OnConnect = func(c mqtt.Client) {
		o.Logger.Printf("[mqtt] connected to broker: %s", o.BrokerURL)
		if token := c.Subscribe(o.Topic, o.QoS, h); token.Wait() && token.Error() != nil {
			o.Logger.Printf("[mqtt] subscribe error: %v", token.Error())
		} else {
			o.Logger.Printf("[mqtt] subscribed to topic: %s (QoS %d)", o.Topic, o.QoS)
		}
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		o.Logger.Printf("[mqtt] connection lost: %v", err)
	}

	return mqtt.NewClient(opts)
}

func ConnectWithBackoff(ctx context.Context, logger *log.Logger, client mqtt.Client, start, max time.Duration) {
	backoff := start
	for {
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Printf("[mqtt] connect error: %v; retrying in %s", token.Error(), backoff)
			select {
			case <-time.After(backoff):
				if backoff < max {
					backoff *= 2
				}
			case <-ctx.Done():
				logger.Println("[mqtt] context cancelled before connect")
				return
			}
			continue
		}
		break
	}
}
