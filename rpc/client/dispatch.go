package client

import (
	"github.com/ValentinKolb/connectkit/lib/codec"
	"github.com/ValentinKolb/connectkit/lib/framing"
	"github.com/ValentinKolb/connectkit/lib/manifest"
	"github.com/ValentinKolb/connectkit/rpc/common"
)

// receive appends a chunk read from s and dispatches every complete frame.
// Runs on the event loop.
func (c *Client) receive(s *session, chunk []byte) {
	if c.current.Load() != s {
		common.FrameDropped(common.DropStaleSession)
		return
	}
	common.BytesReceived.Add(len(chunk))
	s.frames.Write(chunk)

	// a callback may replace the session, remaining frames then belong to a dead stream
	for c.current.Load() == s {
		f, ok, err := s.frames.Next()
		if err != nil {
			common.FrameDropped(common.DropCorruptStream)
			c.fail(s, &ConnectionError{Endpoint: s.endpoint, Err: err})
			return
		}
		if !ok {
			return
		}
		c.dispatch(f)
	}
}

// dispatch routes one frame to the manifest or to the typed callback of its id
func (c *Client) dispatch(f framing.Frame) {
	common.FramesReceived.Inc()

	if f.ID == codec.ManifestID {
		c.applyManifest(f.Payload)
		return
	}

	entry, ok := c.Manifest().FindByID(f.ID)
	if !ok {
		common.FrameDropped(common.DropUnknownID)
		Logger.Debugf("Dropping frame for unknown id %d (%d bytes)", f.ID, len(f.Payload))
		return
	}
	if !entry.Kind.HasValue() {
		common.FrameDropped(common.DropNoValue)
		Logger.Debugf("Dropping frame for %s (%s has no value)", entry.Name, entry.Kind)
		return
	}

	v, err := codec.Decode(entry.Kind, f.Payload)
	if err != nil {
		common.FrameDropped(common.DropDecodeError)
		Logger.Debugf("Dropping frame for %s: %v", entry.Name, err)
		return
	}

	c.values.Store(f.ID, v)
	c.resolveWaiters(f.ID, v)

	switch entry.Kind {
	case codec.KindBool:
		c.delegate.OnBool(f.ID, v.Bool())
	case codec.KindInt32:
		c.delegate.OnInt32(f.ID, v.Int32())
	case codec.KindFloat32:
		c.delegate.OnFloat32(f.ID, v.Float32())
	case codec.KindFloat64:
		c.delegate.OnFloat64(f.ID, v.Float64())
	case codec.KindString:
		c.delegate.OnString(f.ID, v.Str())
	case codec.KindInt64:
		c.delegate.OnInt64(f.ID, v.Int64())
	}
}

// applyManifest replaces the manifest snapshot and notifies the delegate
func (c *Client) applyManifest(payload []byte) {
	m, err := manifest.Decode(payload)
	if err != nil {
		common.FrameDropped(common.DropBadManifest)
		Logger.Debugf("Dropping manifest frame: %v", err)
		return
	}

	c.manifest.Store(m)
	c.values.Clear()
	common.ManifestRebuilds.Inc()
	Logger.Infof("Received manifest with %d entries (%d malformed lines skipped)", m.Len(), m.Skipped())

	c.delegate.OnManifest(m.Entries())
}

// resolveWaiters hands v to every Fetch waiting for id
func (c *Client) resolveWaiters(id int32, v codec.Value) {
	chans, ok := c.waiters.LoadAndDelete(id)
	if !ok {
		return
	}
	for _, ch := range chans {
		ch <- v
	}
}
