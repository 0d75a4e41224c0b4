// storetest is a small manual smoke-test harness for pkg/engine: exercise
// add, delete, word search, and a restart-recovery cycle against a
// throwaway directory.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kittclouds/gokitt-search/pkg/engine"
	"github.com/kittclouds/gokitt-search/pkg/query"
	"github.com/kittclouds/gokitt-search/pkg/tokenizer"
	"github.com/kittclouds/gokitt-search/pkg/value"
)

func main() {
	dir, err := os.MkdirTemp("", "gokitt-search-storetest-*")
	if err != nil {
		log.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	fmt.Println("Testing Engine...")
	testEngine(dir)

	fmt.Println("\nTesting recovery across restart...")
	testRecovery()

	fmt.Println("\nAll smoke tests passed.")
}

func newEngine(dir string) *engine.Engine {
	e, err := engine.New(engine.Config{
		BaseDir:  dir,
		MaxDepth: 8,
		Tokenizer: tokenizer.Config{
			MinNgram: 2,
			MaxNgram: 4,
		},
	})
	if err != nil {
		log.Fatalf("engine.New: %v", err)
	}
	return e
}

func testEngine(dir string) {
	e := newEngine(dir)
	defer e.Close()

	id, err := e.AddDocument(value.Object(map[string]value.Value{
		"title": value.Text("Pokemon Adventures"),
	}), 1)
	if err != nil {
		log.Fatalf("AddDocument: %v", err)
	}
	fmt.Printf("  added document %s\n", id)

	q := query.New(e.Store())
	hits := q.GetWords([]string{"pokemon"})
	if len(hits) != 1 || hits[0] != id {
		log.Fatalf("GetWords: expected [%s], got %v", id, hits)
	}
	fmt.Println("  GetWords finds the new document")

	if err := e.DeleteDocument(id, 2); err != nil {
		log.Fatalf("DeleteDocument: %v", err)
	}
	if hits := q.GetWords([]string{"pokemon"}); len(hits) != 0 {
		log.Fatalf("GetWords after delete: expected none, got %v", hits)
	}
	fmt.Println("  delete reverses indexing")
}

func testRecovery() {
	fresh, err := os.MkdirTemp("", "gokitt-search-storetest-recover-*")
	if err != nil {
		log.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(fresh)

	e := newEngine(fresh)
	id, err := e.AddDocument(value.Object(map[string]value.Value{
		"title": value.Text("Digimon Tamers"),
	}), 1)
	if err != nil {
		log.Fatalf("AddDocument: %v", err)
	}
	e.Close()

	reopened := newEngine(fresh)
	defer reopened.Close()

	q := query.New(reopened.Store())
	hits := q.GetWords([]string{"digimon"})
	if len(hits) != 1 || hits[0] != id {
		log.Fatalf("recovery: expected [%s], got %v", id, hits)
	}
	fmt.Println("  recovered document survives a restart")
}
