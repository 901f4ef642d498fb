package sms

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client is the offer delivery gateway. Real delivery lives outside this
// subsystem; this client rate-limits, records the send and reports success,
// which is all the engine depends on.
type Client struct {
	rateLimiter *rate.Limiter
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) SendOffer(ctx context.Context, phone string, message string) error {

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	log.Infof("offer SMS recorded for %v: %v", phone, message)
	return nil
}
