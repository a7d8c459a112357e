package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client talks to the REST side of the fleet server. Every request carries
// the bearer token returned by the token func at send time.
type Client struct {
	http   *resty.Client
	token  func() string
	logger *zap.Logger
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithToken sets the source of the bearer token attached to every request.
func WithToken(f func() string) Option {
	return func(c *Client) {
		c.token = f
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

func WithRetries(n int) Option {
	return func(c *Client) {
		c.http.SetRetryCount(n).
			SetRetryWaitTime(time.Second).
			SetRetryMaxWaitTime(5 * time.Second)
	}
}

func InsecureSkipVerify() Option {
	return func(c *Client) {
		c.http.SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // self-signed appliances
		})
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(120*time.Second).
			SetHeader("Accept", "application/json"),
		token:  func() string { return "" },
		logger: zap.L(), // returns the global logger.
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// bare builds a request without credentials. Responses are always decoded
// as JSON, whatever content type the server claims.
func (c *Client) bare(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		ForceContentType("application/json")
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.bare(ctx)
	if t := c.token(); t != "" {
		r.SetAuthToken(t)
	}
	return r
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s %s: %s", ErrUnexpectedStatus, resp.Request.Method, resp.Request.URL, resp.Status())
	}
	return nil
}

// GetSnapshot loads every device, tag and location and normalizes the
// embedded objects down to id references.
func (c *Client) GetSnapshot(ctx context.Context) (model.Snapshot, error) {
	var body snapshotResponse
	resp, err := c.request(ctx).SetResult(&body).Get("/api/")
	if err := check(resp, err); err != nil {
		return model.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snap := body.normalize()
	c.logger.Debug("fetched snapshot",
		zap.Int("devices", len(snap.Devices)),
		zap.Int("tags", len(snap.Tags)),
		zap.Int("locations", len(snap.Locations)))
	return snap, nil
}

type knxEnvelope struct {
	ID   string `json:"_id"`
	Data struct {
		Event model.KNXEvent `json:"event"`
	} `json:"data"`
}

// GetKNXEvents returns the stored KNX log, newest first as served.
func (c *Client) GetKNXEvents(ctx context.Context) ([]model.KNXEvent, error) {
	var body []knxEnvelope
	resp, err := c.request(ctx).SetResult(&body).Get("/api/knx/get_events")
	if err := check(resp, err); err != nil {
		return nil, fmt.Errorf("get knx events: %w", err)
	}
	out := make([]model.KNXEvent, 0, len(body))
	for _, env := range body {
		ev := env.Data.Event
		ev.ID = env.ID
		out = append(out, ev)
	}
	return out, nil
}

type scheduledEnvelope struct {
	model.ScheduledEvent
	UID string `json:"_id"`
}

func (c *Client) GetScheduledEvents(ctx context.Context) ([]model.ScheduledEvent, error) {
	var body []scheduledEnvelope
	resp, err := c.request(ctx).SetResult(&body).Get("/api/calendar/get_events")
	if err := check(resp, err); err != nil {
		return nil, fmt.Errorf("get scheduled events: %w", err)
	}
	out := make([]model.ScheduledEvent, 0, len(body))
	for _, env := range body {
		ev := env.ScheduledEvent
		if env.UID != "" {
			ev.ID = env.UID
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *Client) SaveScheduledEvent(ctx context.Context, ev model.ScheduledEvent) error {
	resp, err := c.request(ctx).SetBody(ev).Post("/api/calendar/save_event")
	if err := check(resp, err); err != nil {
		return fmt.Errorf("save scheduled event %s: %w", ev.ID, err)
	}
	return nil
}

func (c *Client) DeleteScheduledEvent(ctx context.Context, id string) error {
	resp, err := c.request(ctx).Delete("/api/calendar/delete_event/" + url.PathEscape(id))
	if err := check(resp, err); err != nil {
		return fmt.Errorf("delete scheduled event %s: %w", id, err)
	}
	return nil
}

type actionBody struct {
	Data any `json:"data"`
}

// Action asks the server to run action on the entity described by item.
func (c *Client) Action(ctx context.Context, kind model.Kind, action model.Capability, item any) error {
	path := fmt.Sprintf("/api/%s/%s", url.PathEscape(kind.String()), url.PathEscape(action.String()))
	resp, err := c.request(ctx).SetBody(actionBody{Data: item}).Post(path)
	if err := check(resp, err); err != nil {
		return fmt.Errorf("%s %s: %w", kind, action, err)
	}
	c.logger.Info("action sent", zap.Stringer("kind", kind), zap.Stringer("action", action))
	return nil
}
