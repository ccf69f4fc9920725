package client

import (
	"github.com/ValentinKolb/connectkit/lib/manifest"
)

// Delegate receives the events of a Client. All methods are called serially
// from the client's event loop, in the order the underlying frames arrived.
// Implementations must not block for long; they may call any Client method.
type Delegate interface {
	// OnConnect is called once the stream is established, right before the
	// manifest is requested
	OnConnect()
	// OnError is called for transport failures and failed sends
	OnError(err error)

	OnBool(id int32, value bool)
	OnInt32(id int32, value int32)
	OnFloat32(id int32, value float32)
	OnFloat64(id int32, value float64)
	OnString(id int32, value string)
	OnInt64(id int32, value int64)

	// OnManifest is called with the id-sorted entries after every manifest
	// frame, also when the manifest holds no valid entries
	OnManifest(entries []manifest.Entry)
}

// StateObserver can optionally be implemented by a Delegate to be notified
// about connection state changes
type StateObserver interface {
	OnStateChange(old, new ConnectionState)
}

// --------------------------------------------------------------------------
// NopDelegate
// --------------------------------------------------------------------------

// NopDelegate implements every Delegate method as a no-op. Embed it to
// implement only the callbacks of interest.
type NopDelegate struct{}

func (NopDelegate) OnConnect() {}
func (NopDelegate) OnError(error) {}
func (NopDelegate) OnBool(int32, bool) {}
func (NopDelegate) OnInt32(int32, int32) {}
func (NopDelegate) OnFloat32(int32, float32) {}
func (NopDelegate) OnFloat64(int32, float64) {}
func (NopDelegate) OnString(int32, string) {}
func (NopDelegate) OnInt64(int32, int64) {}
func (NopDelegate) OnManifest([]manifest.Entry) {}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// Handlers adapts a set of optional functions to the Delegate interface.
// Nil functions are skipped.
type Handlers struct {
	Connect     func()
	Error       func(err error)
	Bool        func(id int32, value bool)
	Int32       func(id int32, value int32)
	Float32     func(id int32, value float32)
	Float64     func(id int32, value float64)
	String      func(id int32, value string)
	Int64       func(id int32, value int64)
	Manifest    func(entries []manifest.Entry)
	StateChange func(old, new ConnectionState)
}

func (h *Handlers) OnConnect() {
	if h.Connect != nil {
		h.Connect()
	}
}

func (h *Handlers) OnError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

func (h *Handlers) OnBool(id int32, value bool) {
	if h.Bool != nil {
		h.Bool(id, value)
	}
}

func (h *Handlers) OnInt32(id int32, value int32) {
	if h.Int32 != nil {
		h.Int32(id, value)
	}
}

func (h *Handlers) OnFloat32(id int32, value float32) {
	if h.Float32 != nil {
		h.Float32(id, value)
	}
}

func (h *Handlers) OnFloat64(id int32, value float64) {
	if h.Float64 != nil {
		h.Float64(id, value)
	}
}

func (h *Handlers) OnString(id int32, value string) {
	if h.String != nil {
		h.String(id, value)
	}
}

func (h *Handlers) OnInt64(id int32, value int64) {
	if h.Int64 != nil {
		h.Int64(id, value)
	}
}

func (h *Handlers) OnManifest(entries []manifest.Entry) {
	if h.Manifest != nil {
		h.Manifest(entries)
	}
}

func (h *Handlers) OnStateChange(old, new ConnectionState) {
	if h.StateChange != nil {
		h.StateChange(old, new)
	}
}
