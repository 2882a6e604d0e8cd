package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/kwkoo/irremote"
	"github.com/kwkoo/irremote/irweb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func addCommands(root *cobra.Command) {
	root.AddCommand(
		&cobra.Command{
			Use:   "press <button>",
			Short: "Press a named button",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				buttons, err := loadButtons()
				if err != nil {
					return err
				}
				if _, ok := buttons.Lookup(args[0]); !ok {
					return fmt.Errorf("unknown button %q, see irctl buttons", args[0])
				}
				return newClient().Press(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "send <function>",
			Short: "Send a raw RC5 function code",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				function, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid function code %q: %v", args[0], err)
				}
				return newClient().Send(cmd.Context(), function)
			},
		},
		&cobra.Command{
			Use:   "send6 <address> <function>",
			Short: "Send an RC6 command with a single digit address",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				address, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid address %q: %v", args[0], err)
				}
				function, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid function code %q: %v", args[1], err)
				}
				return newClient().SendRC6(cmd.Context(), address, function)
			},
		},
		&cobra.Command{
			Use:   "buttons",
			Short: "List the buttons",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				buttons, err := loadButtons()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TOKEN\tLABEL\tCODE")
				for _, b := range buttons.Buttons() {
					fmt.Fprintf(w, "%s\t%s\t%d\n", b.Token, b.Label, b.Code)
				}
				return w.Flush()
			},
		},
		macroCmd(),
	)
}

func macroCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "macro <name>",
		Short: "Run a macro from a macros JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("macros")
			if len(path) == 0 {
				return fmt.Errorf("no macros file, set --macros or IRCTL_MACROS")
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("could not open macros JSON file %v: %v", path, err)
			}
			defer f.Close()
			buttons, err := loadButtons()
			if err != nil {
				return err
			}
			macros, err := irweb.IngestMacros(f, buttons)
			if err != nil {
				return err
			}
			m, ok := macros[args[0]]
			if !ok {
				return fmt.Errorf("%v is not a valid macro", args[0])
			}
			return m.Run(cmd.Context(), newClient())
		},
	}
	cmd.Flags().String("macros", "", "Path to the JSON file specifying macros")
	return cmd
}

// loadButtons returns the table named by --buttons, or the built-in one.
func loadButtons() (*irremote.ButtonTable, error) {
	path := viper.GetString("buttons")
	if len(path) == 0 {
		return irremote.DefaultButtons(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open buttons JSON file %v: %v", path, err)
	}
	defer f.Close()
	return irweb.IngestButtons(f)
}
