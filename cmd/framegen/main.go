// Command framegen writes synthetic frame files for trying out framescan
// and for benchmarks.
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

// Config is read from flags and environment by goconfig.
type Config struct {
	Files       int    `usage:"number of files to write"`
	Entries     int    `usage:"entries per file"`
	Jitter      int    `usage:"random +/- spread of entries per file"`
	Seed        int64  `usage:"random seed"`
	Compression string `usage:"column compression: none | lz4 | zstd"`
	Codec       string `usage:"schema codec: json | json-v2"`

	Store     string `usage:"blob store: local | minio | s3"`
	Root      string `usage:"output directory of the local store"`
	Bucket    string `usage:"bucket of a remote store"`
	Prefix    string `usage:"key prefix inside the bucket"`
	Endpoint  string `usage:"remote store endpoint"`
	Region    string `usage:"remote store region"`
	AccessKey string `usage:"minio access key"`
	SecretKey string `usage:"minio secret key"`
	Secure    bool   `usage:"use TLS for minio"`

	LogLevel string `usage:"log level: debug | info | warn | error"`
	LogJSON  bool   `usage:"log as JSON"`
	Version  bool   `usage:"show version and exit"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Files:       4,
		Entries:     1000,
		Seed:        4711,
		Compression: "lz4",
		Codec:       "json-v2",
		Store:       "local",
		Root:        ".",
		LogLevel:    "info",
	}
}

func main() {
	c := Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := generate(ctx, c, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "framegen:", err)
		os.Exit(1)
	}
}
