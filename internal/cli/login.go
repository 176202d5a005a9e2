package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yukikurage/taskboard-web/internal/validation"
)

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a bearer token",
		Example: `  export TASKBOARD_TOKEN=$(taskboard login --email ada@example.com --password secret1)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validation.AllowedTLD(email) {
				return errors.New("email must end in .com, .net or .org")
			}
			if !validation.Password(password) {
				return errors.New("password must be 6-30 letters and digits with at least one of each")
			}
			token, err := opts.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
