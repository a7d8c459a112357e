package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"github.com/anicoll/fleetsync/internal/pkg/views"
)

const topicRoot = "fleetsync"

// RegisterMessage is the retained discovery document announcing one entity.
type RegisterMessage struct {
	Tilda      string         `json:"~"`
	Name       string         `json:"name"`
	ID         string         `json:"unique_id"`
	StateTopic string         `json:"stat_t"`
	ValueTpl   string         `json:"val_tpl"`
	Device     RegisterDevice `json:"device"`
}

type RegisterDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

// Topic is the base topic of v; its state lives under Topic(v)+"/state".
func Topic(v views.View) string {
	return fmt.Sprintf("%s/%s/%s-%d", topicRoot, v.Kind, slug.Make(v.Name), v.ID)
}

func (s *service) Write(ctx context.Context, data []views.View) error {
	for _, v := range data {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.RegisterEntity(v); err != nil {
			return err
		}
		if err := s.PublishData(v); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEntity publishes the discovery document of v once per topic.
func (s *service) RegisterEntity(v views.View) error {
	base := Topic(v)
	s.mu.Lock()
	_, exists := s.configured[base]
	s.mu.Unlock()
	if exists {
		return nil
	}

	identifier := fmt.Sprintf("fleetsync_%s_%d", v.Kind, v.ID)
	payload, err := json.Marshal(defaultRegisterMsg(v, base, identifier))
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("homeassistant/sensor/%s/config", identifier)
	token := s.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(time.Second * 5) {
		return fmt.Errorf("register %s: timed out", identifier)
	}
	if err := token.Error(); err != nil {
		return err
	}
	s.mu.Lock()
	s.configured[base] = struct{}{}
	s.mu.Unlock()
	return nil
}

// PublishData writes the retained state of v.
func (s *service) PublishData(v views.View) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := s.client.Publish(Topic(v)+"/state", 1, true, payload)
	if !token.WaitTimeout(time.Second * 10) {
		return fmt.Errorf("publish %s: timed out", Topic(v))
	}
	return token.Error()
}

func defaultRegisterMsg(v views.View, base, identifier string) RegisterMessage {
	return RegisterMessage{
		Tilda:      base,
		Name:       v.Name,
		ID:         identifier,
		StateTopic: "~/state",
		ValueTpl:   "{{ value_json.is_online }}",
		Device: RegisterDevice{
			Name:         v.Name,
			Identifiers:  []string{identifier},
			Model:        string(v.Kind),
			Manufacturer: "fleetsync",
		},
	}
}
