package util

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/ValentinKolb/connectkit/rpc/discovery"
	"github.com/ValentinKolb/connectkit/rpc/transport"
	"github.com/ValentinKolb/connectkit/rpc/transport/tcp"
	"github.com/ValentinKolb/connectkit/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cli")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (CONNECTKIT_<flag>)
	EnvPrefix = "connectkit"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds the connection flags of the state client to a command
func SetupClientFlags(cmd *cobra.Command) {
	defaults := common.DefaultClientConfig()

	key := "endpoint"
	cmd.PersistentFlags().String(key, "", WrapString("Address of the simulator (host:port). If empty, the simulator is discovered via its UDP broadcast"))

	key = "discovery-port"
	cmd.PersistentFlags().Int(key, common.DefaultDiscoveryPort, WrapString("UDP port the simulator broadcasts its session on"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, defaults.TimeoutSecond, WrapString("Timeout in seconds for discovery, dialing and waiting for replies"))

	key = "idle-timeout"
	cmd.PersistentFlags().Int(key, 0, WrapString("Fail the connection when nothing was received for this many seconds (0 disables the check)"))

	key = "debug-checks"
	cmd.PersistentFlags().Bool(key, false, WrapString("Warn when a message is sent to an id missing from the manifest or with a different kind"))

	key = "max-frame-size"
	cmd.PersistentFlags().Int(key, defaults.MaxFrameSize/1024, WrapString("Largest frame payload accepted from the simulator (in KB)"))

	key = "reconnect"
	cmd.PersistentFlags().Bool(key, false, WrapString("Reconnect automatically after the connection failed"))

	key = "reconnect-max-attempts"
	cmd.PersistentFlags().Int(key, 0, WrapString("How many reconnect attempts are made in a row (0 means unlimited)"))

	key = "reconnect-initial-delay"
	cmd.PersistentFlags().Int(key, defaults.Reconnect.InitialDelayMs, WrapString("Delay before the first reconnect attempt (in ms)"))

	key = "reconnect-max-delay"
	cmd.PersistentFlags().Int(key, defaults.Reconnect.MaxDelayMs, WrapString("Upper bound of the reconnect delay (in ms)"))

	SetupTransportFlags(cmd)
	SetupLogFlags(cmd)
}

// SetupTransportFlags adds the socket option flags to a command
func SetupTransportFlags(cmd *cobra.Command) {
	key := "transport"
	cmd.PersistentFlags().String(key, "tcp", WrapString("Transport to use (tcp, unix). For unix the endpoint is the socket path"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, 0 keeps the OS default)"))
}

// SetupLogFlags adds the log level flag to a command
func SetupLogFlags(cmd *cobra.Command) {
	key := "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// InitLogging applies the configured log level
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetTransportConfig reads the socket options from viper
func GetTransportConfig() common.TransportConfig {
	return common.TransportConfig{
		TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
		ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
	}
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() common.ClientConfig {
	conf := common.DefaultClientConfig()
	conf.Endpoint = viper.GetString("endpoint")
	conf.TimeoutSecond = viper.GetInt("timeout")
	conf.IdleTimeoutSecond = viper.GetInt("idle-timeout")
	conf.DebugChecks = viper.GetBool("debug-checks")
	if size := viper.GetInt("max-frame-size"); size > 0 {
		conf.MaxFrameSize = size * 1024
	}
	conf.Reconnect = common.ReconnectConfig{
		Enabled:        viper.GetBool("reconnect"),
		MaxAttempts:    viper.GetInt("reconnect-max-attempts"),
		InitialDelayMs: viper.GetInt("reconnect-initial-delay"),
		MaxDelayMs:     viper.GetInt("reconnect-max-delay"),
	}
	conf.Transport = GetTransportConfig()
	conf.LogLevel = viper.GetString("log-level")
	return conf
}

// GetClientConnector creates the client connector based on configuration
func GetClientConnector() (transport.IClientConnector, error) {
	switch viper.GetString("transport") {
	case "tcp", "":
		return tcp.NewClientConnector(Timeout()), nil
	case "unix":
		return unix.NewClientConnector(Timeout()), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerConnector creates the server connector based on configuration
func GetServerConnector() (transport.IServerConnector, error) {
	switch viper.GetString("transport") {
	case "tcp", "":
		return tcp.NewServerConnector(), nil
	case "unix":
		return unix.NewServerConnector(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// Timeout returns the configured timeout, 0 means none
func Timeout() time.Duration {
	return time.Duration(viper.GetInt("timeout")) * time.Second
}

// ResolveEndpoint returns the configured endpoint or discovers a simulator
// on the discovery port when none is set
func ResolveEndpoint(ctx context.Context, config common.ClientConfig) (string, error) {
	if config.Endpoint != "" {
		return config.Endpoint, nil
	}

	if timeout := Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	port := viper.GetInt("discovery-port")
	Logger.Infof("No endpoint set, listening for simulators on UDP port %d", port)
	session, err := discovery.Discover(ctx, port)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	return session.Endpoint(), nil
}

// SignalContext returns a context that is canceled on SIGINT or SIGTERM
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
