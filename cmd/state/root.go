package state

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ValentinKolb/connectkit/cmd/util"
	"github.com/ValentinKolb/connectkit/lib/manifest"
	"github.com/ValentinKolb/connectkit/rpc/client"
	"github.com/spf13/cobra"
)

var (
	// StateCommands represents the state command group
	StateCommands = &cobra.Command{
		Use:               "state",
		Short:             "Read, write and watch simulator states",
		Long:              `Connect to a simulator and access its states. States are addressed by their manifest name or numeric id. The configuration can be set via command line flags or environment variables (CONNECTKIT_<flag>, e.g. CONNECTKIT_ENDPOINT=192.168.1.20:10112).`,
		PersistentPreRunE: setupState,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add client flags to the state command
	util.SetupClientFlags(StateCommands)

	// Add subcommands
	StateCommands.AddCommand(manifestCmd)
	StateCommands.AddCommand(getCmd)
	StateCommands.AddCommand(setCmd)
	StateCommands.AddCommand(commandCmd)
	StateCommands.AddCommand(watchCmd)
}

// setupState binds the flags and applies the log level
func setupState(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return util.InitLogging()
}

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

// conn is a connected client together with the events the commands wait for
type conn struct {
	*client.Client
	manifests chan []manifest.Entry
	errors    chan error
}

// connect resolves the endpoint, connects and waits for the first manifest.
// The handlers receive the value callbacks; Manifest and Error are taken over.
func connect(ctx context.Context, handlers *client.Handlers) (*conn, error) {
	config := util.GetClientConfig()
	connector, err := util.GetClientConnector()
	if err != nil {
		return nil, err
	}

	endpoint, err := util.ResolveEndpoint(ctx, config)
	if err != nil {
		return nil, err
	}

	c := &conn{
		manifests: make(chan []manifest.Entry, 16),
		errors:    make(chan error, 16),
	}
	handlers.Manifest = func(entries []manifest.Entry) {
		select {
		case c.manifests <- entries:
		default:
		}
	}
	handlers.Error = func(err error) {
		select {
		case c.errors <- err:
		default:
		}
	}

	c.Client = client.NewClient(config, connector, handlers)
	if err := c.Connect(endpoint); err != nil {
		_ = c.Close()
		return nil, err
	}
	if _, err := c.awaitManifest(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// awaitManifest waits for the next manifest
func (c *conn) awaitManifest(ctx context.Context) ([]manifest.Entry, error) {
	if timeout := util.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case entries := <-c.manifests:
		return entries, nil
	case err := <-c.errors:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for manifest: %w", ctx.Err())
	}
}

// sync requests a manifest and waits for it, so every message sent before
// has been processed by the simulator
func (c *conn) sync(ctx context.Context) error {
drain:
	for {
		select {
		case <-c.manifests:
		default:
			break drain
		}
	}
	if err := c.GetManifest(); err != nil {
		return err
	}
	_, err := c.awaitManifest(ctx)
	return err
}

// fetchContext returns a context bounded by the configured timeout
func fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := util.Timeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// resolveEntry looks up a state by numeric id or by name
func resolveEntry(m *manifest.Manifest, ref string) (manifest.Entry, error) {
	if id, err := strconv.ParseInt(ref, 10, 32); err == nil {
		if e, ok := m.FindByID(int32(id)); ok {
			return e, nil
		}
		return manifest.Entry{}, fmt.Errorf("%w: id %d", client.ErrUnknownName, id)
	}
	if e, ok := m.FindByName(ref); ok {
		return e, nil
	}
	return manifest.Entry{}, fmt.Errorf("%w: %s", client.ErrUnknownName, ref)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
