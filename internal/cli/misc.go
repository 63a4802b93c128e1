package cli

import (
	"fmt"
	"strconv"

	"github.com/joacominatel/devintest/internal/prime"
	"github.com/spf13/cobra"
)

var noSetup = map[string]string{annotationNoSetup: "true"}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: noSetup,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "devintest v%s (%s)\n", version, GitCommit)
		},
	}
}

func newPrimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "prime N...",
		Short:       "Report whether each number is prime",
		Args:        cobra.MinimumNArgs(1),
		Annotations: noSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				n, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid number %q", a)
				}

				verdict := "is not prime"
				if prime.IsPrime(n) {
					verdict = "is prime"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", n, verdict)
			}
			return nil
		},
	}
}
