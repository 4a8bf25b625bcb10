package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/mailctl/internal/application"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// describedError shows the operator-facing text for err while keeping it
// available to errors.Is and errors.As.
type describedError struct {
	err error
}

func (e describedError) Error() string {
	return application.DescribeError(e.err)
}

func (e describedError) Unwrap() error {
	return e.err
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	return describedError{err: err}
}

// perform runs op, drawing a spinner on stderr unless quiet is set.
func perform(cmd *cobra.Command, label string, quiet bool, op func(context.Context) error) error {
	if quiet {
		return describe(op(cmd.Context()))
	}
	return describe(runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), label, op))
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func writeRendered(cmd *cobra.Command, rendered string, err error) error {
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
