// Package engineconf holds the small set of knobs a worker needs at start
// up: where its scratch space lives, how much memory it may hold in
// partition buffers, and a default partition count (DefaultPartitions).
// The dataset builders do not read DefaultPartitions: a wide dataset with
// no explicit partition count takes its parent's width. Grounded on the teacher's cmd/worker/main.go,
// which reads its own two knobs (-port, -master) the same way: flag.Parse
// into package-level vars, no config file or library, since none appears
// anywhere in the pack.
package engineconf

import "flag"

// Config is one worker's runtime configuration.
type Config struct {
	WorkerID        string
	ScratchDir      string
	StorageMemory   int64
	DefaultPartitions int
}

// RegisterFlags installs this package's flags on fs (pass flag.CommandLine
// from main, or a fresh *flag.FlagSet in a test that wants isolation) and
// returns a Config populated once fs.Parse has run.
func RegisterFlags(fs *flag.FlagSet) *Config {
	cfg := &Config{}
	fs.StringVar(&cfg.WorkerID, "worker-id", "local", "identifier this worker reports in shuffle file descriptors")
	fs.StringVar(&cfg.ScratchDir, "scratch", "/tmp/distcalc-scratch", "local directory for shuffle spill files")
	fs.Int64Var(&cfg.StorageMemory, "storage-memory", 256<<20, "ceiling, in bytes, on this worker's persisted-partition buffers")
	fs.IntVar(&cfg.DefaultPartitions, "default-partitions", 4, "default partition count carried in Config (not read by the dataset builders)")
	return cfg
}
