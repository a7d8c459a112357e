package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/fleetsync/internal/pkg/model"
	"github.com/anicoll/fleetsync/internal/pkg/views"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	paho_mqtt.Client

	mu        sync.Mutex
	published []message
	err       error
}

func (f *fakeClient) Connect() paho_mqtt.Token { return &fakeToken{err: f.err} }

func (f *fakeClient) Publish(topic string, _ byte, retained bool, payload any) paho_mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, message{topic: topic, retained: retained, payload: payload.([]byte)})
	return &fakeToken{err: f.err}
}

func TestTopic(t *testing.T) {
	tests := map[string]struct {
		view views.View
		want string
	}{
		"device": {
			view: views.View{Kind: model.KindDevice, ID: 7, Name: "Projector Left"},
			want: "fleetsync/device/projector-left-7",
		},
		"location": {
			view: views.View{Kind: model.KindLocation, ID: 100, Name: "Main Hall"},
			want: "fleetsync/location/main-hall-100",
		},
		"unnamed": {
			view: views.View{Kind: model.KindTag, ID: 3},
			want: "fleetsync/tag/-3",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Topic(tt.view))
		})
	}
}

func TestService_Write(t *testing.T) {
	client := &fakeClient{}
	s := New(client)
	v := views.View{Kind: model.KindDevice, ID: 7, Name: "proj", IsOnline: model.StatusOnline}

	require.NoError(t, s.Write(context.Background(), []views.View{v}))
	require.NoError(t, s.Write(context.Background(), []views.View{v}))

	require.Len(t, client.published, 3)
	discovery := client.published[0]
	assert.Equal(t, "homeassistant/sensor/fleetsync_device_7/config", discovery.topic)
	assert.True(t, discovery.retained)
	var reg RegisterMessage
	require.NoError(t, json.Unmarshal(discovery.payload, &reg))
	assert.Equal(t, "fleetsync/device/proj-7", reg.Tilda)
	assert.Equal(t, "~/state", reg.StateTopic)

	state := client.published[1]
	assert.Equal(t, "fleetsync/device/proj-7/state", state.topic)
	assert.True(t, state.retained)
	var got views.View
	require.NoError(t, json.Unmarshal(state.payload, &got))
	assert.Equal(t, v.Name, got.Name)
	assert.Equal(t, model.StatusOnline, got.IsOnline)

	assert.Equal(t, "fleetsync/device/proj-7/state", client.published[2].topic)
}

func TestService_WriteErrors(t *testing.T) {
	client := &fakeClient{err: errors.New("broker gone")}
	s := New(client)
	err := s.Write(context.Background(), []views.View{{Kind: model.KindTag, ID: 1, Name: "t"}})
	assert.EqualError(t, err, "broker gone")
	assert.Empty(t, s.configured)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, New(&fakeClient{}).Write(ctx, []views.View{{Kind: model.KindTag, ID: 1}}), context.Canceled)
}

func TestService_Connect(t *testing.T) {
	assert.NoError(t, New(&fakeClient{}).Connect())
	assert.Error(t, New(&fakeClient{err: errors.New("refused")}).Connect())
}
