package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yoockh/yoointerview/internal/utils"
)

func newHashSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret [username]",
		Short: "Hash a respondent or dashboard password with bcrypt",
		Long: `Reads one password line from stdin and prints its bcrypt hash, which
RESPONDENT_PASSWORDS and DASHBOARD_PASSWORD accept in place of plain text.
With a username the output is a ready RESPONDENT_PASSWORDS entry.

Examples:
  echo -n 's3cret' | transcripts hash-secret
  transcripts hash-secret alice < alice.pw`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no password on stdin")
			}
			secret := strings.TrimRight(line, "\r\n")
			if secret == "" {
				return errors.New("password must not be empty")
			}

			hash, err := utils.HashPassword(secret)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", args[0], hash)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
