package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/citegraph/internal/article"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines
// (1MB per line; reference lists can run long).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadArticlesJSONL reads all articles from a JSONL file. A missing file
// yields an empty slice.
func ReadArticlesJSONL(path string) ([]article.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening articles file: %w", err)
	}
	defer f.Close()

	var articles []article.Article
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var a article.Article
		if err := json.Unmarshal(line, &a); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		articles = append(articles, a)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading articles file: %w", err)
	}

	return articles, nil
}

// WriteArticlesJSONL writes the full article list to a JSONL file,
// replacing any existing content.
func WriteArticlesJSONL(path string, articles []article.Article) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating articles file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range articles {
		if err := enc.Encode(&articles[i]); err != nil {
			return fmt.Errorf("encoding article %s: %w", articles[i].ID, err)
		}
	}
	return w.Flush()
}

// ExportArticles writes the corpus to a JSONL file and returns the count.
func (d *DB) ExportArticles(path string) (int, error) {
	articles, err := d.ListArticles()
	if err != nil {
		return 0, err
	}
	if err := WriteArticlesJSONL(path, articles); err != nil {
		return 0, err
	}
	return len(articles), nil
}

// ImportArticles loads articles from a JSONL file, skipping ids already
// stored. Returns the number inserted.
func (d *DB) ImportArticles(path string) (int, error) {
	articles, err := ReadArticlesJSONL(path)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for i := range articles {
		existing, err := d.GetArticle(articles[i].ID)
		if err != nil {
			return inserted, err
		}
		if existing != nil {
			continue
		}
		if err := d.InsertArticle(&articles[i]); err != nil {
			return inserted, fmt.Errorf("importing article %s: %w", articles[i].ID, err)
		}
		inserted++
	}
	return inserted, nil
}
