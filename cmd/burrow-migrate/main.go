package main

import (
	"flag"
	"log"
	"os"

	blog "github.com/burrowmoo/burrow/pkg/log"
	"github.com/burrowmoo/burrow/pkg/snapshot"
	"github.com/burrowmoo/burrow/pkg/tasks"
)

var (
	input  = flag.String("input", "", "Snapshot file to read (any supported version)")
	output = flag.String("output", "", "Path to write the next-gen snapshot to")
	dryRun = flag.Bool("dry-run", false, "Load and validate only, write nothing")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Burrow Snapshot Migration Tool - v4 → next-gen")
	log.Println("==============================================")

	if *input == "" || *output == "" {
		log.Fatal("Both -input and -output are required")
	}
	if _, err := os.Stat(*input); os.IsNotExist(err) {
		log.Fatalf("Snapshot not found at %s", *input)
	}

	blog.Init(blog.Config{Level: "info"})

	ctx, err := snapshot.New(snapshot.Config{
		InputName:   *input,
		DumpName:    *output,
		Unforked:    true,
		TaskQueue:   tasks.NewQueue(),
		Connections: tasks.NewRoster(),
	})
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}

	if err := ctx.Load(); err != nil {
		log.Fatalf("Load failed: %v", err)
	}

	store := ctx.Store()
	log.Printf("Input: %s (format version %d)", *input, ctx.InputVersion())
	log.Printf("Slots: %d (last objid #%d)", store.MaxObjid()+1, store.MaxObjid())
	if !ctx.InputVersion().Legacy() {
		log.Printf("Input is already next-gen; output will be a rewrite")
	}

	if *dryRun {
		log.Println("Dry run: no output written")
		return
	}

	if err := ctx.Flush(snapshot.FlushAllNow); err != nil {
		log.Fatalf("Write failed: %v", err)
	}
	log.Printf("Wrote next-gen snapshot to %s", *output)
}
