package state

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ValentinKolb/connectkit/lib/codec"
	"github.com/ValentinKolb/connectkit/rpc/client"
	"github.com/spf13/cobra"
)

var (
	manifestCmd = &cobra.Command{
		Use:   "manifest [filter]",
		Short: "Lists all states of the simulator",
		Long:  "Lists the id, kind and name of every state in the manifest. An optional filter only shows names containing it.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), &client.Handlers{})
			if err != nil {
				return err
			}
			defer c.Close()

			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tNAME")
			for _, e := range c.Manifest().Entries() {
				if filter != "" && !strings.Contains(e.Name, filter) {
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, e.Kind, e.Name)
			}
			return w.Flush()
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [state...]",
		Short: "Reads the current value of one or more states",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), &client.Handlers{})
			if err != nil {
				return err
			}
			defer c.Close()

			for _, ref := range args {
				entry, err := resolveEntry(c.Manifest(), ref)
				if err != nil {
					return err
				}
				if !entry.Kind.HasValue() {
					return fmt.Errorf("%w: %s is a command", codec.ErrNoValue, entry.Name)
				}

				ctx, cancel := fetchContext(cmd.Context())
				v, err := c.Fetch(ctx, entry.ID)
				cancel()
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", entry.Name, err)
				}
				fmt.Printf("%s = %s\n", entry.Name, v)
			}
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [state] [value]",
		Short: "Writes the value of a state",
		Long:  "Writes the value of a state. The value is parsed according to the kind of the state (true/false, integers, floats or text).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), &client.Handlers{})
			if err != nil {
				return err
			}
			defer c.Close()

			entry, err := resolveEntry(c.Manifest(), args[0])
			if err != nil {
				return err
			}
			v, err := codec.ParseValue(entry.Kind, args[1])
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", entry.Name, err)
			}
			if err := c.Set(entry.ID, v); err != nil {
				return err
			}

			// the reply is sent after the write was applied
			ctx, cancel := fetchContext(cmd.Context())
			defer cancel()
			got, err := c.Fetch(ctx, entry.ID)
			if err != nil {
				return fmt.Errorf("failed to read back %s: %w", entry.Name, err)
			}
			fmt.Printf("%s = %s\n", entry.Name, got)
			return nil
		},
	}
	commandCmd = &cobra.Command{
		Use:     "cmd [command]",
		Aliases: []string{"run"},
		Short:   "Triggers a command",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), &client.Handlers{})
			if err != nil {
				return err
			}
			defer c.Close()

			entry, err := resolveEntry(c.Manifest(), args[0])
			if err != nil {
				return err
			}
			if entry.Kind != codec.KindCommand {
				return fmt.Errorf("%w: %s is %s, not a command", codec.ErrKindMismatch, entry.Name, entry.Kind)
			}
			if err := c.Command(entry.ID); err != nil {
				return err
			}
			if err := c.sync(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("triggered %s\n", entry.Name)
			return nil
		},
	}
)
