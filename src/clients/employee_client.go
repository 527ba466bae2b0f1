package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// EmployeeClient handles communication with the employee service and
// publishes attendance activity events.
type EmployeeClient struct {
	baseURL    string
	httpClient *http.Client
	channel    *amqp.Channel
	cfg        *config.RabbitMQConfig
}

// NewEmployeeClient creates a new employee service client
func NewEmployeeClient(cfg *config.Configuration, channel *amqp.Channel) *EmployeeClient {
	return &EmployeeClient{
		baseURL: cfg.Employee.Url,
		channel: channel,
		cfg:     &cfg.Queue.RabbitMQ,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Employee.Timeout) * time.Second,
		},
	}
}

// ExistsById checks whether an employee is registered in the employee service
func (c *EmployeeClient) ExistsById(ctx context.Context, employeeID string) (bool, error) {
	url := fmt.Sprintf("%s/employees/%s", c.baseURL, employeeID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to call employee service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("employee service returned status: %d", resp.StatusCode)
	}

	var response struct {
		Employee json.RawMessage `json:"employee"`
		Status   string          `json:"status"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return true, nil
}

// PublishActivity publishes an attendance activity message to RabbitMQ
func (c *EmployeeClient) PublishActivity(employeeID, sessionID, serviceName, action string) error {
	return c.PublishActivityWithMetadata(employeeID, sessionID, serviceName, action, nil)
}

// PublishActivityWithMetadata publishes an attendance activity message with extra fields
func (c *EmployeeClient) PublishActivityWithMetadata(employeeID, sessionID, serviceName, action string, metadata map[string]string) error {
	message := models.ActivityMessage{
		EmployeeID:  employeeID,
		SessionID:   sessionID,
		ServiceName: serviceName,
		Action:      action,
		Metadata:    metadata,
		Timestamp:   time.Now(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal activity message: %w", err)
	}

	err = c.channel.Publish(
		c.cfg.Exchange,
		c.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to publish activity message")
		return fmt.Errorf("failed to publish activity message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"session_id":  sessionID,
		"service":     serviceName,
		"action":      action,
		"exchange":    c.cfg.Exchange,
		"routing_key": c.cfg.RoutingKey,
	}).Debug("Activity message published")

	return nil
}
