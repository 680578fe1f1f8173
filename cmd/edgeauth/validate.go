package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newValidateCmd(envFiles *[]string) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate one identity token and print true or false",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("--token is required")
			}
			rt, err := loadRuntime(*envFiles)
			if err != nil {
				return err
			}
			defer rt.close()

			ok, err := rt.validator.Validate(cmd.Context(), rt.cfg.Provider.Endpoint, rt.cfg.Provider.Audience, rt.cache, token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "compact identity token")
	return cmd
}
