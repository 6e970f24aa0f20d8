package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haukened/gonce/nonce"
)

func newCreateCmd(c *cli) *cobra.Command {
	var expiry, length string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a nonce and print its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *nonce.Manager) error {
				v, err := m.CreateRaw(cmd.Context(), args[0], expiry, length)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&expiry, "expiry", "", "lifetime in seconds (default from config)")
	cmd.Flags().StringVar(&length, "length", "", "token length (default from config)")
	return cmd
}

func newGetCmd(c *cli) *cobra.Command {
	var allowExpired bool
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print the value of a nonce, exit 3 if absent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *nonce.Manager) error {
				v, ok, err := m.Get(cmd.Context(), args[0], lookupOpts(allowExpired)...)
				if err != nil {
					return err
				}
				if !ok {
					return errNegative
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&allowExpired, "allow-expired", false, "report expired nonces too")
	return cmd
}

func newHasCmd(c *cli) *cobra.Command {
	var allowExpired bool
	cmd := &cobra.Command{
		Use:   "has NAME",
		Short: "Print whether a nonce exists, exit 3 if not",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *nonce.Manager) error {
				ok, err := m.Has(cmd.Context(), args[0], lookupOpts(allowExpired)...)
				if err != nil {
					return err
				}
				return printBool(cmd, ok)
			})
		},
	}
	cmd.Flags().BoolVar(&allowExpired, "allow-expired", false, "report expired nonces too")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a nonce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *nonce.Manager) error {
				return m.Delete(cmd.Context(), args[0])
			})
		},
	}
}

func newVerifyCmd(c *cli) *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "verify NAME VALUE",
		Short: "Verify a value against a nonce, exit 3 if it does not match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []nonce.VerifyOption
			if keep {
				opts = append(opts, nonce.KeepOnSuccess())
			}
			return c.withManager(cmd.Context(), func(m *nonce.Manager) error {
				ok, err := m.Verify(cmd.Context(), args[0], args[1], opts...)
				if err != nil {
					return err
				}
				return printBool(cmd, ok)
			})
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the nonce after a successful verification")
	return cmd
}

func lookupOpts(allowExpired bool) []nonce.LookupOption {
	if allowExpired {
		return []nonce.LookupOption{nonce.AllowExpired()}
	}
	return nil
}

func printBool(cmd *cobra.Command, ok bool) error {
	fmt.Fprintln(cmd.OutOrStdout(), ok)
	if !ok {
		return errNegative
	}
	return nil
}
