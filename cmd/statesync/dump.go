package main

import (
	"encoding/json"
	"io"

	"github.com/RuiFG/statesync/log"
	"github.com/RuiFG/statesync/store"
	"github.com/RuiFG/statesync/value"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/uber-go/tally/v4"
)

type namespaceFlags struct {
	prefix string
	raw    bool
}

func (f *namespaceFlags) register(command *cobra.Command) {
	command.Flags().StringVar(&f.prefix, "prefix", "", "namespace to read (default sync.prefix)")
	command.Flags().BoolVar(&f.raw, "raw", false, "read raw keys instead of a namespace")
	command.MarkFlagsMutuallyExclusive("prefix", "raw")
}

// resolve returns the prefix to use, "" for raw keys.
func (f *namespaceFlags) resolve(c *cli) (string, error) {
	switch {
	case f.raw:
		return "", nil
	case f.prefix != "":
		return f.prefix, store.ValidatePrefix(f.prefix)
	case c.application.Sync.RawKeys:
		return "", nil
	default:
		return c.application.Sync.Prefix, nil
	}
}

type line struct {
	Namespace string          `json:"namespace,omitempty"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Seq       uint64          `json:"seq"`
}

func printEntry(out io.Writer, entry store.Entry) error {
	data, err := value.Marshal(entry.Value)
	if err != nil {
		return err
	}
	l := line{Key: string(entry.Key), Value: data, Seq: entry.Seq}
	if namespace, sub, ok := store.SplitKey(entry.Key); ok {
		l.Namespace, l.Key = namespace, sub
	}
	encoded, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = out.Write(append(encoded, '\n'))
	return err
}

func (c *cli) openStore() (*store.Store, error) {
	return c.application.OpenStore(log.Named("store"), tally.NoopScope)
}

func (c *cli) dumpCommand() *cobra.Command {
	flags := &namespaceFlags{}
	command := &cobra.Command{
		Use:   "dump",
		Short: "print the entries of a namespace as json lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := flags.resolve(c)
			if err != nil {
				return err
			}
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			r := store.Range{}
			if prefix != "" {
				r = store.PrefixRange(prefix)
			}
			for entry, err := range st.Scan(cmd.Context(), r) {
				if err != nil {
					return err
				}
				if err := printEntry(cmd.OutOrStdout(), entry); err != nil {
					return errors.WithMessage(err, "failed to print entry")
				}
			}
			return nil
		},
	}
	flags.register(command)
	return command
}

func (c *cli) getCommand() *cobra.Command {
	flags := &namespaceFlags{}
	command := &cobra.Command{
		Use:   "get <key>",
		Short: "print one entry as a json line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := flags.resolve(c)
			if err != nil {
				return err
			}
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			key := store.RawKey(args[0])
			if prefix != "" {
				key = store.CompositeKey(prefix, args[0])
			}
			entry, found, err := st.Get(cmd.Context(), key)
			if err != nil {
				return err
			}
			if !found {
				return errors.Errorf("key %q not found", args[0])
			}
			return printEntry(cmd.OutOrStdout(), entry)
		},
	}
	flags.register(command)
	return command
}
