package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/middleware"
)

// Notification channels.
const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// TemplateOrderShipped is the notification template for shipped orders.
const TemplateOrderShipped = "order_shipped"

// Notification is a templated message to a customer on one channel.
type Notification struct {
	Channel    string            `json:"channel"`
	To         string            `json:"to"`
	Template   string            `json:"template"`
	OrderID    string            `json:"order_id"`
	CustomerID string            `json:"customer_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

// NotificationSender delivers notifications.
type NotificationSender interface {
	Send(ctx context.Context, n *Notification) error
}

var _ NotificationSender = (*HTTPNotificationClient)(nil)

// HTTPNotificationClient implements NotificationSender using HTTP.
type HTTPNotificationClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.LoggerV2
}

// NewHTTPNotificationClient creates a new HTTP-based notification client.
func NewHTTPNotificationClient(cfg config.ServiceConfig, logger *logging.LoggerV2) *HTTPNotificationClient {
	return &HTTPNotificationClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// Send posts a notification to the channel endpoint of the notification service.
func (c *HTTPNotificationClient) Send(ctx context.Context, n *Notification) error {
	c.logger.Debug("Sending notification", logging.Fields{
		"order_id": n.OrderID,
		"channel":  n.Channel,
		"template": n.Template,
	})

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v2/notifications/%s", c.baseURL, n.Channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	c.setHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send notification", logging.Fields{
			"order_id": n.OrderID,
			"channel":  n.Channel,
			"error":    err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%s notification returned status %d", n.Channel, resp.StatusCode)
	}

	c.logger.Info("Notification sent", logging.Fields{
		"order_id": n.OrderID,
		"channel":  n.Channel,
	})

	return nil
}

func (c *HTTPNotificationClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}
}

// MockNotificationClient records notifications instead of sending them.
type MockNotificationClient struct {
	mu            sync.Mutex
	notifications []*Notification
	err           error
}

// NewMockNotificationClient creates a mock notification client.
func NewMockNotificationClient() *MockNotificationClient {
	return &MockNotificationClient{
		notifications: make([]*Notification, 0),
	}
}

// FailWith makes every subsequent Send return err.
func (m *MockNotificationClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockNotificationClient) Send(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return m.err
}

// Sent returns a copy of the notifications recorded so far.
func (m *MockNotificationClient) Sent() []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}
