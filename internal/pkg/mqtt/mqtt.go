package mqtt

import (
	"errors"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
)

var errConnectTimeout = errors.New("unable to connect in time")

type service struct {
	client paho_mqtt.Client

	mu         sync.Mutex
	configured map[string]struct{}
}

func New(client paho_mqtt.Client) *service {
	return &service{
		client:     client,
		configured: make(map[string]struct{}),
	}
}

// NewClient builds a paho client that reconnects on its own.
func NewClient(broker, username, password string) paho_mqtt.Client {
	opts := paho_mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleetsync").
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(5 * time.Second)
	return paho_mqtt.NewClient(opts)
}

func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(time.Second * 5)
	if res {
		return token.Error()
	}
	if err := token.Error(); err != nil {
		return err
	}
	return errConnectTimeout
}

func (s *service) Close() {
	s.client.Disconnect(250)
}
