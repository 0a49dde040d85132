// Command localrun is the single-process reference runtime: it wires
// internal/rtctx.Context to the local filesystem, builds a small word-count
// job over the dataset graph, and runs it through internal/driver end to
// end. Grounded on the teacher's cmd/client/main.go, whose main() builds a
// word-count common.JobRequest and submits it over HTTP; here there is no
// RPC hop to make (a single process has no dispatch decision), so the same
// job shape is built directly against the dataset graph and run in-process.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"distcalc/internal/common"
	"distcalc/internal/dataset"
	"distcalc/internal/driver"
	"distcalc/internal/engineconf"
	"distcalc/internal/memstore"
	"distcalc/internal/ports"
	"distcalc/internal/rtctx"
)

func main() {
	cfg := engineconf.RegisterFlags(flag.CommandLine)
	inputPath := flag.String("input", "", "text file to word-count")
	numPartitions := flag.Int("partitions", 2, "map-side partition count")
	flag.Parse()

	if *inputPath == "" {
		tmp, err := writeSampleInput()
		if err != nil {
			log.Fatalf("localrun: %v", err)
		}
		defer os.Remove(tmp)
		*inputPath = tmp
	}

	blob := ports.LocalFS{}
	ctx := &rtctx.Context{
		Blob:       blob,
		Dispatcher: ports.NewLocalDispatcher(cfg.WorkerID),
		ScratchDir: cfg.ScratchDir,
		Mem:        memstore.NewManager(cfg.StorageMemory),
		WorkerID:   cfg.WorkerID,
	}

	lines := dataset.TextFile(*inputPath, *numPartitions, blob, nil)
	words := lines.FlatMap("tokenize", nil)
	nonEmpty := words.Filter("not_empty", nil)
	pairs := nonEmpty.Map("to_pair_one", nil)
	counts := pairs.ReduceByKey("sum_ints", nil, *numPartitions)

	results, err := driver.Collect(ctx, counts)
	if err != nil {
		log.Fatalf("localrun: job failed: %v", err)
	}

	rows := make([]common.Pair, 0, len(results))
	for _, r := range results {
		p, ok := r.(common.Pair)
		if !ok {
			continue
		}
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool {
		ci, cj := asCount(rows[i].Value), asCount(rows[j].Value)
		if ci != cj {
			return ci > cj
		}
		return fmt.Sprint(rows[i].Key) < fmt.Sprint(rows[j].Key)
	})
	for _, p := range rows {
		fmt.Printf("%v\t%d\n", p.Key, asCount(p.Value))
	}
}

// asCount reads a reduced count as an int. A key with a single map-side
// contributor never reaches the combiner (internal/shuffle/reader.go's
// first-file-sets-the-accumulator path) and keeps its decoded wire type,
// which encoding/json renders as float64, not int.
func asCount(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func writeSampleInput() (string, error) {
	f, err := os.CreateTemp("", "distcalc-sample-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()
	_, err = f.WriteString("the quick brown fox\njumps over the lazy dog\nthe dog barks at the fox\n")
	return f.Name(), err
}
