package mock

import (
	"fmt"
	"net"
	"os"

	"github.com/ValentinKolb/connectkit/cmd/util"
	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/ValentinKolb/connectkit/rpc/discovery"
	"github.com/ValentinKolb/connectkit/rpc/server"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	mockCmdConfig = &common.MockConfig{}
	MockCmd       = &cobra.Command{
		Use:     "mock",
		Short:   "Start a mock simulator",
		Long:    `Start a mock simulator serving the state protocol. It answers reads, stores writes and counts commands for the states of its manifest. The configuration can be set via command line flags or environment variables. The format of the environment variables is CONNECTKIT_<flag> (e.g. CONNECTKIT_PUSH_INTERVAL=100)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// add flags
	key := "endpoint"
	MockCmd.PersistentFlags().String(key, fmt.Sprintf("0.0.0.0:%d", common.DefaultPort), util.WrapString("The address on which the mock simulator will listen"))

	key = "manifest-file"
	MockCmd.PersistentFlags().String(key, "", util.WrapString("Path of a file with `id,kind,name` lines to serve. If empty, a small aircraft manifest is served"))

	key = "push-interval"
	MockCmd.PersistentFlags().Int(key, 0, util.WrapString("Push every value to every client at this interval (in ms, 0 disables pushing)"))

	key = "announce"
	MockCmd.PersistentFlags().Bool(key, false, util.WrapString("Broadcast the session on the discovery port so clients can find the mock"))

	key = "announce-target"
	MockCmd.PersistentFlags().String(key, "", util.WrapString("Address the session is sent to (default is the IPv4 broadcast address on the discovery port)"))

	key = "device-name"
	MockCmd.PersistentFlags().String(key, "", util.WrapString("Device name announced in the session (default is the host name)"))

	key = "aircraft"
	MockCmd.PersistentFlags().String(key, "Mock Aircraft", util.WrapString("Aircraft announced in the session"))

	util.SetupTransportFlags(MockCmd)
	util.SetupLogFlags(MockCmd)
}

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	mockCmdConfig.Endpoint = viper.GetString("endpoint")
	mockCmdConfig.PushIntervalMs = viper.GetInt("push-interval")
	mockCmdConfig.Transport = util.GetTransportConfig()
	mockCmdConfig.LogLevel = viper.GetString("log-level")

	if path := viper.GetString("manifest-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read manifest: %w", err)
		}
		mockCmdConfig.Manifest = string(data)
	}

	return util.InitLogging()
}

// run starts the mock simulator and blocks until interrupted
func run(_ *cobra.Command, _ []string) error {
	ctx, cancel := util.SignalContext()
	defer cancel()

	server.Logger.Infof("Configuration:%s", mockCmdConfig)
	connector, err := util.GetServerConnector()
	if err != nil {
		return err
	}
	sim := server.NewSimulator(*mockCmdConfig, connector)

	if viper.GetBool("announce") {
		session, err := announcedSession()
		if err != nil {
			return err
		}
		a, err := discovery.NewAnnouncer(session, viper.GetString("announce-target"))
		if err != nil {
			return err
		}
		a.Start(discovery.AnnounceInterval)
		defer a.Stop()
		server.Logger.Infof("Announcing session %s", session)
	}

	return sim.Serve(ctx)
}

// announcedSession describes this host as a simulator session
func announcedSession() (discovery.Session, error) {
	addrs, err := localAddresses()
	if err != nil {
		return discovery.Session{}, err
	}

	name := viper.GetString("device-name")
	if name == "" {
		if name, err = os.Hostname(); err != nil {
			name = "mock"
		}
	}

	return discovery.Session{
		IPv4:       firstIPv4(addrs),
		Addresses:  addrs,
		State:      "Playing",
		Version:    "mock",
		DeviceID:   uuid.NewString(),
		DeviceName: name,
		Aircraft:   viper.GetString("aircraft"),
		Livery:     "Default",
	}, nil
}

// localAddresses lists the unicast addresses of all interfaces
func localAddresses() ([]string, error) {
	ifAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("failed to list interface addresses: %w", err)
	}
	var addrs []string
	for _, a := range ifAddrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() || ipNet.IP.IsUnspecified() {
			continue
		}
		addrs = append(addrs, ipNet.IP.String())
	}
	if firstIPv4(addrs) == "" {
		return nil, discovery.ErrNoIPv4
	}
	return addrs, nil
}

func firstIPv4(addrs []string) string {
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a
		}
	}
	return ""
}
