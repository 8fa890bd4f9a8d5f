//go:build ignore

// Package main generates a synthetic book catalog for load testing.
// Usage: go run scripts/generate-catalog.go -rows 1000000 -bad 0.001 -output testdata/books.csv
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

var (
	numRows = flag.Int("rows", 100000, "Number of rows to generate")
	badRate = flag.Float64("bad", 0, "Fraction of rows with an unparseable year")
	output  = flag.String("output", "testdata/books.csv", "Output file")
	seed    = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var (
	words      = []string{"Silent", "River", "Empire", "Garden", "Machine", "Winter", "Stars", "Letters", "Night", "Atlas", "Glass", "Harbor"}
	authors    = []string{"A. Novak", "B. Okafor", "C. Lindqvist", "D. Moreau", "E. Tanaka", "F. Haddad", "G. Ivanova"}
	publishers = []string{"", "Penguin", "Vintage", "Orbit", "Tor", "Faber", "Granta"}
	extensions = []string{"pdf", "epub", "mobi", "djvu", "fb2"}
	languages  = []string{"en", "de", "fr", "es", "ru", "ja"}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output directory: %v\n", err)
		os.Exit(1)
	}
	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20)
	w := csv.NewWriter(bw)

	bad := 0
	for i := 1; i <= *numRows; i++ {
		year := strconv.Itoa(1900 + rng.Intn(125))
		if rng.Float64() < *badRate {
			year = "unknown"
			bad++
		}
		record := []string{
			strconv.Itoa(i),
			pick(rng, words) + " " + pick(rng, words),
			pick(rng, authors),
			pick(rng, publishers),
			pick(rng, extensions),
			strconv.Itoa(10_000 + rng.Intn(50_000_000)),
			pick(rng, languages),
			year,
			strconv.Itoa(20 + rng.Intn(1200)),
			fmt.Sprintf("978%010d", rng.Int63n(10_000_000_000)),
			fmt.Sprintf("bafy%016x", rng.Uint64()),
		}
		if err := w.Write(record); err != nil {
			fmt.Fprintf(os.Stderr, "write row %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "flush: %v\n", err)
		os.Exit(1)
	}
	if err := bw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "flush: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d rows (%d with a bad year) in %s\n", *numRows, bad, *output)
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}
