package main

// Config is read from flags and environment by goconfig.
type Config struct {
	Glob          string `usage:"file glob, matched against store names"`
	Files         string `usage:"comma separated file list, used when glob is empty"`
	Mode          string `usage:"describe | count | summary | dump"`
	Columns       string `usage:"comma separated column allow-list"`
	Limit         int64  `usage:"entry limit, negative for all"`
	Workers       int    `usage:"number of workers (dump always uses one)"`
	RangesPerSlot int    `usage:"entry ranges per worker"`
	Discovery     string `usage:"column discovery: probe | union"`
	JSON          bool   `usage:"print results as JSON"`

	Store     string `usage:"blob store: local | minio | s3"`
	Root      string `usage:"root directory of the local store"`
	Bucket    string `usage:"bucket of a remote store"`
	Prefix    string `usage:"key prefix inside the bucket"`
	Endpoint  string `usage:"remote store endpoint"`
	Region    string `usage:"remote store region"`
	AccessKey string `usage:"minio access key"`
	SecretKey string `usage:"minio secret key"`
	Secure    bool   `usage:"use TLS for minio"`
	CacheMB   int64  `usage:"block cache size in MiB, 0 disables"`

	MemoryMB     int64 `usage:"memory limit for cached blocks in MiB, 0 for unlimited"`
	MaxOpenFiles int64 `usage:"files open at once, 0 for unlimited"`
	ReadMBps     int64 `usage:"read rate limit in MiB/s, 0 for unlimited"`

	LogLevel string `usage:"log level: debug | info | warn | error"`
	LogJSON  bool   `usage:"log as JSON"`
	Version  bool   `usage:"show version and exit"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Mode:          "describe",
		Limit:         -1,
		Workers:       4,
		RangesPerSlot: 1,
		Discovery:     "probe",
		Store:         "local",
		LogLevel:      "warn",
	}
}
