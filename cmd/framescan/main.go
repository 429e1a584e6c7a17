// Command framescan describes, counts, summarizes or dumps a set of frame
// files through framesource.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulldump/goconfig"
)

var VERSION = "dev"

func main() {
	c := Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "framescan:", err)
		os.Exit(1)
	}
}
