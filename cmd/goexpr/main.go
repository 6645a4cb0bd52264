// Command goexpr evaluates and transforms expression tree documents.
//
// Usage:
//
//	goexpr eval rule.yaml --set temperature=23.5
//	goexpr simplify rule.yaml -o simple.yaml
//	goexpr render rule.yaml --english
//	goexpr repl rule.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandrolain/goexpr/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "goexpr:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
