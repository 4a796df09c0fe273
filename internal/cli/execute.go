package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Execute runs the root command with args and returns the process exit
// code. Errors are reported on stderr in the selected output format.
// SIGINT and SIGTERM cancel the command's context.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, args, stdout, stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	output, _ := cmd.PersistentFlags().GetString("output")
	if output != "json" {
		output = "text"
	}
	code := GetExitCode(err)
	errCode := "E_FAILURE"
	if code == ExitCommandError {
		errCode = "E_COMMAND"
	}
	f := &OutputFormatter{Format: output, Writer: stderr}
	_ = f.Error(errCode, err.Error())
	return code
}
