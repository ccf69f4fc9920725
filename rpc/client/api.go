package client

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/connectkit/lib/codec"
	"github.com/ValentinKolb/connectkit/lib/manifest"
)

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

func (c *Client) SetBool(id int32, value bool) error {
	return c.Set(id, codec.BoolValue(value))
}

func (c *Client) SetInt32(id int32, value int32) error {
	return c.Set(id, codec.Int32Value(value))
}

func (c *Client) SetFloat32(id int32, value float32) error {
	return c.Set(id, codec.Float32Value(value))
}

func (c *Client) SetFloat64(id int32, value float64) error {
	return c.Set(id, codec.Float64Value(value))
}

func (c *Client) SetInt64(id int32, value int64) error {
	return c.Set(id, codec.Int64Value(value))
}

func (c *Client) SetString(id int32, value string) error {
	return c.Set(id, codec.StringValue(value))
}

// Set sends a write of value to id. It only fails if the value cannot be
// encoded or no connection is ready; transport errors are reported through
// Delegate.OnError.
func (c *Client) Set(id int32, value codec.Value) error {
	msg, err := codec.EncodeWrite(id, value)
	if err != nil {
		return err
	}
	if c.config.DebugChecks {
		c.checkConsistency("write", id, func(k codec.Kind) bool { return k == value.Kind() }, value.Kind().String())
	}
	return c.send(msg)
}

// --------------------------------------------------------------------------
// Reads and Commands
// --------------------------------------------------------------------------

// Get requests the current value of id. The value arrives through the delegate.
func (c *Client) Get(id int32) error {
	if c.config.DebugChecks {
		c.checkConsistency("read", id, codec.Kind.HasValue, "a value kind")
	}
	return c.send(codec.EncodeRead(id))
}

// Command triggers the command id
func (c *Client) Command(id int32) error {
	if c.config.DebugChecks {
		c.checkConsistency("command", id, func(k codec.Kind) bool { return k == codec.KindCommand }, codec.KindCommand.String())
	}
	return c.send(codec.EncodeRead(id))
}

// GetManifest requests a fresh manifest
func (c *Client) GetManifest() error {
	return c.send(codec.EncodeRead(codec.ManifestID))
}

// Fetch requests id and waits for the next value received for it
func (c *Client) Fetch(ctx context.Context, id int32) (codec.Value, error) {
	ch := make(chan codec.Value, 1)
	c.waiters.Compute(id, func(old []chan codec.Value, _ bool) ([]chan codec.Value, bool) {
		return append(old, ch), false
	})
	defer c.removeWaiter(id, ch)

	if err := c.Get(id); err != nil {
		return codec.Value{}, err
	}

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		return codec.Value{}, ctx.Err()
	}
}

// Value returns the last value received for id since the current manifest arrived
func (c *Client) Value(id int32) (codec.Value, bool) {
	return c.values.Load(id)
}

// --------------------------------------------------------------------------
// Name Based Access
// --------------------------------------------------------------------------

// Lookup resolves a state name through the current manifest
func (c *Client) Lookup(name string) (manifest.Entry, bool) {
	return c.Manifest().FindByName(name)
}

// SetByName writes value to the entry registered under name. The kind of
// value must match the entry.
func (c *Client) SetByName(name string, value codec.Value) error {
	entry, err := c.resolve(name)
	if err != nil {
		return err
	}
	if entry.Kind != value.Kind() {
		return fmt.Errorf("%w: %s is %s, got %s", codec.ErrKindMismatch, name, entry.Kind, value.Kind())
	}
	return c.Set(entry.ID, value)
}

// GetByName requests the value registered under name
func (c *Client) GetByName(name string) error {
	entry, err := c.resolve(name)
	if err != nil {
		return err
	}
	return c.Get(entry.ID)
}

// CommandByName triggers the command registered under name
func (c *Client) CommandByName(name string) error {
	entry, err := c.resolve(name)
	if err != nil {
		return err
	}
	return c.Command(entry.ID)
}

// FetchByName requests the value registered under name and waits for it
func (c *Client) FetchByName(ctx context.Context, name string) (manifest.Entry, codec.Value, error) {
	entry, err := c.resolve(name)
	if err != nil {
		return manifest.Entry{}, codec.Value{}, err
	}
	v, err := c.Fetch(ctx, entry.ID)
	return entry, v, err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// send hands msg to the writer of the current connection
func (c *Client) send(msg []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	s := c.current.Load()
	if s == nil || !s.ready.Load() || !s.enqueue(msg) {
		return ErrNotConnected
	}
	return nil
}

func (c *Client) resolve(name string) (manifest.Entry, error) {
	entry, ok := c.Lookup(name)
	if !ok {
		return manifest.Entry{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return entry, nil
}

func (c *Client) removeWaiter(id int32, ch chan codec.Value) {
	c.waiters.Compute(id, func(old []chan codec.Value, loaded bool) ([]chan codec.Value, bool) {
		if !loaded {
			return nil, true
		}
		rest := old[:0:0]
		for _, w := range old {
			if w != ch {
				rest = append(rest, w)
			}
		}
		return rest, len(rest) == 0
	})
}

// checkConsistency logs a warning if id is missing from the manifest or its
// kind is rejected by accept. It never blocks the message.
func (c *Client) checkConsistency(op string, id int32, accept func(codec.Kind) bool, want string) {
	m := c.manifest.Load()
	if m == nil {
		return
	}
	entry, ok := m.FindByID(id)
	if !ok {
		Logger.Warningf("Sending %s to id %d which is not in the manifest", op, id)
		return
	}
	if !accept(entry.Kind) {
		Logger.Warningf("Sending %s to %s (id %d) of kind %s, expected %s", op, entry.Name, id, entry.Kind, want)
	}
}
