package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/connectkit/cmd/discover"
	"github.com/ValentinKolb/connectkit/cmd/mock"
	"github.com/ValentinKolb/connectkit/cmd/state"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "connectkit",
		Short: "client for the simulator state protocol",
		Long: fmt.Sprintf(`connectkit (v%s)

A client library and command line tool for the binary state protocol of
flight simulators: discover running simulators, list their states, read,
write and watch values and trigger commands.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of connectkit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("connectkit v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(discover.DiscoverCmd)
	RootCmd.AddCommand(state.StateCommands)
	RootCmd.AddCommand(mock.MockCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
