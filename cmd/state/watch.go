package state

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/ValentinKolb/connectkit/cmd/util"
	"github.com/ValentinKolb/connectkit/lib/codec"
	"github.com/ValentinKolb/connectkit/lib/manifest"
	"github.com/ValentinKolb/connectkit/rpc/client"
	"github.com/ValentinKolb/connectkit/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	watchCmd = &cobra.Command{
		Use:   "watch [state...]",
		Short: "Prints state updates until interrupted",
		Long:  "Prints every value received for the given states (all states if none are given). With an interval set, the states are polled; otherwise only values pushed by the simulator are shown. A summary of the update rates is printed on exit.",
		RunE:  runWatch,
	}
)

func init() {
	key := "interval"
	watchCmd.Flags().Int(key, 500, util.WrapString("Poll interval in ms (0 only shows pushed values)"))

	key = "metrics-endpoint"
	watchCmd.Flags().String(key, "", util.WrapString("Serve the client metrics in Prometheus format on this address (e.g. :9100)"))

	key = "quiet"
	watchCmd.Flags().Bool(key, false, util.WrapString("Only print the summary"))
}

// watcher tracks the watched states and their update rates
type watcher struct {
	refs     []string
	quiet    bool
	registry gometrics.Registry

	mu      sync.RWMutex
	watched map[int32]manifest.Entry
}

func newWatcher(refs []string, quiet bool) *watcher {
	return &watcher{
		refs:     refs,
		quiet:    quiet,
		watched:  make(map[int32]manifest.Entry),
		registry: gometrics.NewRegistry(),
	}
}

// handlers returns the value callbacks of the watcher
func (w *watcher) handlers() *client.Handlers {
	return &client.Handlers{
		Bool:    func(id int32, v bool) { w.update(id, codec.BoolValue(v)) },
		Int32:   func(id int32, v int32) { w.update(id, codec.Int32Value(v)) },
		Float32: func(id int32, v float32) { w.update(id, codec.Float32Value(v)) },
		Float64: func(id int32, v float64) { w.update(id, codec.Float64Value(v)) },
		String:  func(id int32, v string) { w.update(id, codec.StringValue(v)) },
		Int64:   func(id int32, v int64) { w.update(id, codec.Int64Value(v)) },
	}
}

// resolve selects the watched entries from m
func (w *watcher) resolve(m *manifest.Manifest) (map[int32]manifest.Entry, error) {
	watched := make(map[int32]manifest.Entry)
	if len(w.refs) == 0 {
		for _, e := range m.Entries() {
			if e.Kind.HasValue() {
				watched[e.ID] = e
			}
		}
		return watched, nil
	}
	for _, ref := range w.refs {
		e, err := resolveEntry(m, ref)
		if err != nil {
			return nil, err
		}
		if !e.Kind.HasValue() {
			return nil, fmt.Errorf("%w: %s is a command", codec.ErrNoValue, e.Name)
		}
		watched[e.ID] = e
	}
	return watched, nil
}

// setWatched replaces the watched entries after a manifest change
func (w *watcher) setWatched(watched map[int32]manifest.Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watched = watched
}

// update runs on the client's event loop
func (w *watcher) update(id int32, v codec.Value) {
	w.mu.RLock()
	e, ok := w.watched[id]
	w.mu.RUnlock()
	if !ok {
		return
	}
	gometrics.GetOrRegisterMeter(e.Name, w.registry).Mark(1)
	if !w.quiet {
		fmt.Printf("%s %s = %s\n", time.Now().Format("15:04:05.000"), e.Name, v)
	}
}

// summary prints the update count and rates of every watched state
func (w *watcher) summary(elapsed time.Duration) {
	type row struct {
		name  string
		meter gometrics.Meter
	}
	var rows []row
	w.registry.Each(func(name string, m interface{}) {
		if meter, ok := m.(gometrics.Meter); ok {
			rows = append(rows, row{name: name, meter: meter})
		}
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	fmt.Printf("\nwatched for %s\n", formatDuration(elapsed))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUPDATES\tMEAN/S\t1MIN/S")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\n", r.name, r.meter.Count(), r.meter.RateMean(), r.meter.Rate1())
	}
	_ = tw.Flush()
	w.registry.UnregisterAll()
}

func runWatch(_ *cobra.Command, args []string) error {
	ctx, cancel := util.SignalContext()
	defer cancel()

	if addr := viper.GetString("metrics-endpoint"); addr != "" {
		srv := serveMetrics(addr)
		defer srv.Close()
	}

	w := newWatcher(args, viper.GetBool("quiet"))
	c, err := connect(ctx, w.handlers())
	if err != nil {
		return err
	}
	defer c.Close()

	// the first manifest was consumed by connect
	watched, err := w.resolve(c.Manifest())
	if err != nil {
		return err
	}
	w.setWatched(watched)

	var tick <-chan time.Time
	if interval := viper.GetInt("interval"); interval > 0 {
		ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
		defer ticker.Stop()
		tick = ticker.C
	}

	started := time.Now()
	defer func() { w.summary(time.Since(started)) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			for id := range watched {
				if err := c.Get(id); err != nil && !errors.Is(err, client.ErrNotConnected) {
					return err
				}
			}
		case <-c.manifests:
			if watched, err = w.resolve(c.Manifest()); err != nil {
				return err
			}
			w.setWatched(watched)
		case err := <-c.errors:
			if !c.Config().Reconnect.Enabled {
				return err
			}
			util.Logger.Warningf("Connection error, reconnecting: %v", err)
		}
	}
}

// serveMetrics serves the client metrics in the background
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		common.WriteMetrics(w)
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.Logger.Errorf("Metrics endpoint failed: %v", err)
		}
	}()
	util.Logger.Infof("Serving metrics on %s/metrics", addr)
	return srv
}
