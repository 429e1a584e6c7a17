package dataframe_test

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/dataframe"
	"github.com/hupe1980/framesource/testutil"
)

// ExampleFrame_ForEach visits every entry of three files on four workers.
func ExampleFrame_ForEach() {
	ctx := context.Background()

	bs := blobstore.NewMemoryStore()
	names, _, err := testutil.WriteFrames(ctx, bs, testutil.NewRNG(42), []int{100, 40, 60})
	if err != nil {
		log.Fatal(err)
	}

	f, err := dataframe.FromFiles(ctx, names, dataframe.WithBlobStore(bs), dataframe.WithWorkers(4))
	if err != nil {
		log.Fatal(err)
	}
	ids, err := dataframe.Column[int64](f, "id")
	if err != nil {
		log.Fatal(err)
	}

	// fn runs concurrently for different slots.
	var sum atomic.Int64
	err = f.ForEach(ctx, func(slot uint, _ uint64) error {
		id, _ := ids.Get(slot)
		sum.Add(id)
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("sum of ids:", sum.Load())
	fmt.Println("labelled:", f.Source().Present("label"))
	// Output:
	// sum of ids: 19900
	// labelled: 67
}

// ExampleReduce counts the entries that carry a label.
func ExampleReduce() {
	ctx := context.Background()

	bs := blobstore.NewMemoryStore()
	names, _, err := testutil.WriteFrames(ctx, bs, testutil.NewRNG(42), []int{30, 30})
	if err != nil {
		log.Fatal(err)
	}

	f, err := dataframe.FromFiles(ctx, names, dataframe.WithBlobStore(bs), dataframe.WithWorkers(3))
	if err != nil {
		log.Fatal(err)
	}
	labels, err := dataframe.Column[string](f, "label")
	if err != nil {
		log.Fatal(err)
	}

	n, err := dataframe.Reduce(ctx, f, labels, 0,
		func(acc int, _ string) int { return acc + 1 },
		func(a, b int) int { return a + b },
	)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(n)
	// Output: 20
}
