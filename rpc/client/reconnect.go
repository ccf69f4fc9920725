package client

import "time"

// scheduleReconnect arranges a new connection attempt to endpoint if the
// reconnect supervisor is enabled. Runs on the event loop.
func (c *Client) scheduleReconnect(endpoint string) {
	rc := c.config.Reconnect
	if !rc.Enabled || c.closed.Load() {
		return
	}
	if rc.MaxAttempts > 0 && c.attempts >= rc.MaxAttempts {
		Logger.Warningf("Giving up reconnecting to %s after %d attempts", endpoint, c.attempts)
		return
	}

	c.attempts++
	delay := c.backoff.Next()
	generation := c.generation.Load()
	Logger.Infof("Reconnecting to %s in %v (attempt %d)", endpoint, delay.Round(time.Millisecond), c.attempts)

	time.AfterFunc(delay, func() {
		c.post(func() {
			// a Connect or Disconnect in the meantime takes precedence
			if c.closed.Load() || c.generation.Load() != generation || c.current.Load() != nil {
				return
			}
			c.startSession(endpoint, false)
		})
	})
}
