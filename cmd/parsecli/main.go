// parsecli parses a single document's OCR fragments from a text file and
// prints the extracted field set as JSON.
//
// Input format: one fragment per line. A line may carry a pixel bounding box
// prefix, "x,y,w,h|text"; plain lines become boxless fragments. Image
// dimensions come from -width/-height; without them the lexical path runs.
//
//	parsecli -in fragments.txt -width 2480 -height 3508
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"docparse/internal/common"
	"docparse/internal/entity"
	"docparse/internal/extract"
	"docparse/internal/parser"
	"docparse/internal/repository"
	"docparse/internal/template"
	"docparse/internal/validate"
)

func main() {
	_ = godotenv.Load()

	in := flag.String("in", "", "fragments file (one fragment per line, optional x,y,w,h| prefix)")
	width := flag.Float64("width", 0, "image width in pixels")
	height := flag.Float64("height", 0, "image height in pixels")
	sqlitePath := flag.String("db", "", "sqlite template database (empty = in-memory, no templates)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: parsecli -in fragments.txt [-width W -height H] [-db templates.db]")
		os.Exit(2)
	}
	fragments, err := readFragments(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read fragments: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var kv repository.KV = repository.NewMemoryKV()
	if *sqlitePath != "" {
		sq, err := repository.OpenSQLite(ctx, *sqlitePath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open sqlite: %v\n", err)
			os.Exit(1)
		}
		defer sq.Close()
		kv = sq
	}

	cfg := common.LoadConfig()
	store := template.NewStore(kv, logger)
	validator := validate.New(validate.Config{
		DatePastYears:  cfg.Parsing.DatePastYears,
		DateFutureDays: cfg.Parsing.DateFutureDays,
	})
	p := parser.New(store, extract.NewLexical(logger), extract.NewRecognizer(logger), validator, parser.Config{
		BasePadding:  cfg.Parsing.BasePadding,
		PaddingScale: cfg.Parsing.PaddingScale,
	}, logger)

	owner := entity.OwnerIdentity{
		RegistrationID: cfg.Parsing.OwnerRegistrationID,
		TaxID:          cfg.Parsing.OwnerTaxID,
	}
	fields, cand, err := p.Parse(ctx, fragments, owner, entity.ImageSize{Width: *width, Height: *height})
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(map[string]any{
		"fields":       fields,
		"counterparty": cand,
	}, "", "  ")
	fmt.Println(string(out))
}

func readFragments(path string) ([]entity.TextFragment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var fragments []entity.TextFragment
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fragments = append(fragments, parseFragmentLine(line))
	}
	return fragments, sc.Err()
}

// parseFragmentLine understands the optional "x,y,w,h|text" box prefix.
func parseFragmentLine(line string) entity.TextFragment {
	bar := strings.Index(line, "|")
	if bar > 0 {
		parts := strings.Split(line[:bar], ",")
		if len(parts) == 4 {
			nums := make([]float64, 0, 4)
			for _, p := range parts {
				v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
				if err != nil {
					return entity.TextFragment{Text: line}
				}
				nums = append(nums, v)
			}
			return entity.TextFragment{
				Text: strings.TrimSpace(line[bar+1:]),
				Box:  &entity.Rect{X: nums[0], Y: nums[1], Width: nums[2], Height: nums[3]},
			}
		}
	}
	return entity.TextFragment{Text: line}
}
