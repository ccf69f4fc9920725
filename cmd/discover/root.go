package discover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/connectkit/cmd/util"
	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/ValentinKolb/connectkit/rpc/discovery"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// DiscoverCmd lists the simulators announcing themselves on the network
	DiscoverCmd = &cobra.Command{
		Use:     "discover",
		Short:   "Find simulators on the local network",
		Long:    `Listen for the UDP broadcasts of running simulators and print them. By default the first simulator found is printed; with --all every simulator seen until the timeout is printed once.`,
		PreRunE: setupDiscover,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(util.InitClientConfig)

	key := "discovery-port"
	DiscoverCmd.Flags().Int(key, common.DefaultDiscoveryPort, util.WrapString("UDP port the simulator broadcasts its session on"))

	key = "timeout"
	DiscoverCmd.Flags().Int(key, 10, util.WrapString("How long to listen (in seconds, 0 listens until interrupted)"))

	key = "all"
	DiscoverCmd.Flags().Bool(key, false, util.WrapString("Keep listening and print every simulator found"))

	util.SetupLogFlags(DiscoverCmd)
}

func setupDiscover(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return util.InitLogging()
}

func run(_ *cobra.Command, _ []string) error {
	ctx, cancel := util.SignalContext()
	defer cancel()
	if timeout := util.Timeout(); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	l, err := discovery.NewListener(viper.GetInt("discovery-port"))
	if err != nil {
		return err
	}
	defer l.Close()

	all := viper.GetBool("all")
	seen := make(map[string]bool)
	started := time.Now()

	err = l.Watch(ctx, func(s discovery.Session) bool {
		key := s.DeviceID + "/" + s.IPv4
		if !seen[key] {
			seen[key] = true
			printSession(s)
		}
		return all
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		if len(seen) == 0 {
			return fmt.Errorf("no simulator found after %s", time.Since(started).Round(time.Second))
		}
		return nil
	default:
		return err
	}
}

func printSession(s discovery.Session) {
	fmt.Printf("%s\n", s.DeviceName)
	fmt.Printf("  %-10s: %s\n", "Endpoint", s.Endpoint())
	fmt.Printf("  %-10s: %s\n", "Device ID", s.DeviceID)
	fmt.Printf("  %-10s: %s\n", "State", s.State)
	fmt.Printf("  %-10s: %s\n", "Version", s.Version)
	fmt.Printf("  %-10s: %s\n", "Aircraft", s.Aircraft)
	fmt.Printf("  %-10s: %s\n", "Livery", s.Livery)
}
