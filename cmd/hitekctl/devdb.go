package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/dataset/sqlite"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// seedDataset creates (or extends) a SQLite dataset file for local runs.
// Records come from a JSON-lines file when from is set, otherwise n synthetic
// records are generated from seed.
func seedDataset(ctx context.Context, path, from string, n int, seed uint64, out io.Writer) error {
	var recs []model.Record
	var err error
	if from != "" {
		recs, err = readRecords(from)
	} else {
		recs = syntheticRecords(n, seed)
	}
	if err != nil {
		return err
	}

	db, err := sqlite.OpenWritable(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := sqlite.EnsureSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := sqlite.Insert(ctx, db, recs); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	_, err = fmt.Fprintf(out, "seeded %d records into %s\n", len(recs), path)
	return err
}

func readRecords(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var recs []model.Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var r model.Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		recs = append(recs, r)
	}
	return recs, sc.Err()
}

var (
	firstNames = []string{"Ravi", "Anita", "Suresh", "Priya", "Amit", "Kavya", "Rahul", "Meena"}
	lastNames  = []string{"Kumar", "Sharma", "Verma", "Iyer", "Singh", "Patel", "Das", "Nair"}
	cities     = []string{"Delhi", "Mumbai", "Chennai", "Kolkata", "Pune", "Jaipur"}
	regions    = []string{"DL", "MH", "TN", "WB", "MH", "RJ"}
)

// syntheticRecords builds n plausible rows. Every third row links to the
// previous row's phone as its alternate number.
func syntheticRecords(n int, seed uint64) []model.Record {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	recs := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		phone := fmt.Sprintf("%d%09d", 6+rng.IntN(4), rng.IntN(1_000_000_000))
		first, last := firstNames[rng.IntN(len(firstNames))], lastNames[rng.IntN(len(lastNames))]
		city := rng.IntN(len(cities))
		r := model.Record{
			Phone:      phone,
			Name:       first + " " + last,
			FatherName: firstNames[rng.IntN(len(firstNames))] + " " + last,
			Address:    fmt.Sprintf("H No %d!!Sector %d,, %s", 1+rng.IntN(500), 1+rng.IntN(60), cities[city]),
			Email:      fmt.Sprintf("%s.%s%d@example.com", first, last, rng.IntN(100)),
			Region:     regions[city],
			OperatorID: fmt.Sprintf("OP%04d", rng.IntN(10000)),
		}
		if i%3 == 2 {
			r.AltPhone = recs[i-1].Phone
		}
		recs = append(recs, r)
	}
	return recs
}
