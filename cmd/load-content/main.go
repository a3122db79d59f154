package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"odai-party/internal/config"
	"odai-party/internal/content"
	"odai-party/internal/logging"

	"github.com/rs/zerolog/log"
)

// Rows are "initial,<key>,,<rare>" or "word,<normal>,<not>,<rare>"; a header row
// starting with "kind" is skipped.
func main() {
	filePath := flag.String("file", "content.csv", "path to content csv")
	merge := flag.Bool("merge", false, "append to the existing content instead of replacing it")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open csv")
	}
	defer file.Close()
	data, err := readContent(file)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read content")
	}

	library := content.NewLibrary(cfg.ContentPath)
	if err := library.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.ContentPath).Msg("failed to load existing content")
	}
	if *merge {
		if existing := library.Snapshot(); existing != nil {
			data.Initial = append(existing.Initial, data.Initial...)
			data.Words = append(existing.Words, data.Words...)
		}
	}
	if err := library.Replace(data); err != nil {
		log.Fatal().Err(err).Msg("failed to write content")
	}
	log.Info().
		Str("path", cfg.ContentPath).
		Int("initials", len(data.Initial)).
		Int("words", len(data.Words)).
		Msg("content loaded")
}

func readContent(r io.Reader) (*content.DataSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	data := &content.DataSet{}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		kind := strings.ToLower(strings.TrimSpace(row[0]))
		if i == 0 && kind == "kind" {
			continue
		}
		rare, err := rarity(row, 3)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		switch kind {
		case "initial":
			key := field(row, 1)
			if key == "" {
				continue
			}
			data.Initial = append(data.Initial, content.Initial{Key: key, Rare: rare})
		case "word":
			normal, not := field(row, 1), field(row, 2)
			if normal == "" || not == "" {
				continue
			}
			data.Words = append(data.Words, content.Word{Normal: normal, Not: not, Rare: rare})
		default:
			return nil, fmt.Errorf("row %d: unknown kind %q", i+1, row[0])
		}
	}
	return data, nil
}

func field(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func rarity(row []string, index int) (int, error) {
	raw := field(row, index)
	if raw == "" {
		return 0, nil
	}
	rare, err := strconv.Atoi(raw)
	if err != nil || rare < 0 {
		return 0, fmt.Errorf("invalid rarity %q", raw)
	}
	return rare, nil
}
