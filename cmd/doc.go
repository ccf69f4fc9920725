// Package cmd implements the command-line interface of connectkit. It provides
// a hierarchical command structure for finding simulators, accessing their
// states and running a mock simulator.
//
// The package is organized into several subpackages:
//
//   - discover: Listen for simulator broadcasts and print the sessions found
//   - state: Connect to a simulator and list, get, set or watch states and trigger commands
//   - mock: Start a mock simulator, optionally announcing itself for discovery
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through the environment as CONNECTKIT_<flag>
// (dashes become underscores), or in a .env / .env.local file.
//
// See connectkit -help for a list of all commands.
package cmd
