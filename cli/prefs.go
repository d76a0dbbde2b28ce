package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewPrefsCmd creates the "prefs" command group.
func NewPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and write typed preferences",
	}
	addConfigFlag(cmd)

	cmd.AddCommand(newPrefsGetCmd())
	cmd.AddCommand(newPrefsSetCmd())
	cmd.AddCommand(newPrefsRmCmd())
	return cmd
}

func newPrefsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrefsGet,
	}
	cmd.Flags().String("type", "string", "Value type: string | bool | int | float")
	return cmd
}

func runPrefsGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	valueType, _ := cmd.Flags().GetString("type")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	found, err := store.Has(ctx, key)
	if err != nil {
		return exitError(exitStore, "%v", err)
	}
	if !found {
		return exitError(exitNotFound, "key not found: %s", key)
	}

	switch valueType {
	case "string":
		v, err := store.String(ctx, key, "")
		if err != nil {
			return exitError(exitStore, "%v", err)
		}
		fmt.Fprintln(out, v)
	case "bool":
		v, err := store.Bool(ctx, key, false)
		if err != nil {
			return exitError(exitStore, "%v", err)
		}
		fmt.Fprintln(out, v)
	case "int":
		v, err := store.Int(ctx, key, 0)
		if err != nil {
			return exitError(exitStore, "%v", err)
		}
		fmt.Fprintln(out, v)
	case "float":
		v, err := store.Float(ctx, key, 0)
		if err != nil {
			return exitError(exitStore, "%v", err)
		}
		fmt.Fprintln(out, v)
	default:
		return exitError(exitInputParse, "unsupported type %q", valueType)
	}
	return nil
}

func newPrefsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value under a key",
		Args:  cobra.ExactArgs(2),
		RunE:  runPrefsSet,
	}
	cmd.Flags().String("type", "string", "Value type: string | bool | int | float")
	return cmd
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	valueType, _ := cmd.Flags().GetString("type")
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	switch valueType {
	case "string":
		err = store.SetString(ctx, key, raw)
	case "bool":
		v, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			return exitError(exitInputParse, "parsing %q as bool: %v", raw, parseErr)
		}
		err = store.SetBool(ctx, key, v)
	case "int":
		v, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			return exitError(exitInputParse, "parsing %q as int: %v", raw, parseErr)
		}
		err = store.SetInt(ctx, key, v)
	case "float":
		v, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil {
			return exitError(exitInputParse, "parsing %q as float: %v", raw, parseErr)
		}
		err = store.SetFloat(ctx, key, v)
	default:
		return exitError(exitInputParse, "unsupported type %q", valueType)
	}
	if err != nil {
		return exitError(exitStore, "%v", err)
	}
	return nil
}

func newPrefsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Remove(cmd.Context(), args[0]); err != nil {
				return exitError(exitStore, "%v", err)
			}
			return nil
		},
	}
}
