package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bioeval/internal/config"
	"bioeval/internal/logging"
)

// Row is one MedMCQA record as served by the Hugging Face datasets server.
type Row struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	OptionA     string `json:"opa"`
	OptionB     string `json:"opb"`
	OptionC     string `json:"opc"`
	OptionD     string `json:"opd"`
	CorrectOpt  int    `json:"cop"` // 0-3 index into opa..opd
	Explanation string `json:"exp"`
	SubjectName string `json:"subject_name"`
	TopicName   string `json:"topic_name"`
}

// Options returns the four option texts in order.
func (r Row) Options() [4]string {
	return [4]string{r.OptionA, r.OptionB, r.OptionC, r.OptionD}
}

// AnswerLetter maps the correct option index to its letter.
func (r Row) AnswerLetter() string {
	letters := []string{"A", "B", "C", "D"}
	if r.CorrectOpt < 0 || r.CorrectOpt >= len(letters) {
		return ""
	}
	return letters[r.CorrectOpt]
}

// AnswerText returns the text of the correct option.
func (r Row) AnswerText() string {
	opts := r.Options()
	if r.CorrectOpt < 0 || r.CorrectOpt >= len(opts) {
		return ""
	}
	return opts[r.CorrectOpt]
}

// Loader fetches MedMCQA rows from the datasets server or a local file, with
// an on-disk cache so repeated preps don't re-download.
type Loader struct {
	client   *http.Client
	cacheDir string
	logger   logging.Logger
}

const rowsEndpoint = "https://datasets-server.huggingface.co/rows"

// cacheTTL controls how long a downloaded dataset snapshot stays fresh.
const cacheTTL = 7 * 24 * time.Hour

// NewLoader creates a dataset loader.
func NewLoader(cacheDir string, logger logging.Logger) *Loader {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logging.OrNop(logger).Warn("Failed to create cache directory: %v", err)
	}
	return &Loader{
		client:   &http.Client{Timeout: 30 * time.Minute},
		cacheDir: cacheDir,
		logger:   logging.OrNop(logger),
	}
}

// Load returns all rows for the configured source.
func (l *Loader) Load(ctx context.Context, cfg config.DatasetConfig) ([]Row, error) {
	switch cfg.Source {
	case "huggingface":
		return l.loadHuggingFace(ctx, cfg)
	case "file":
		return l.loadFile(cfg.FilePath)
	default:
		return nil, fmt.Errorf("unsupported dataset source: %s", cfg.Source)
	}
}

// Filter keeps rows matching the configured subject whose topic is in the
// topic list. Order is preserved.
func Filter(rows []Row, subject string, topics []string) []Row {
	topicSet := make(map[string]bool, len(topics))
	for _, t := range topics {
		topicSet[t] = true
	}

	var filtered []Row
	for _, row := range rows {
		if row.SubjectName != subject {
			continue
		}
		if !topicSet[row.TopicName] {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// CountByTopic tallies rows per topic name.
func CountByTopic(rows []Row) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.TopicName]++
	}
	return counts
}

func (l *Loader) loadHuggingFace(ctx context.Context, cfg config.DatasetConfig) ([]Row, error) {
	cacheKey := strings.ReplaceAll(cfg.HFDataset, "/", "__") + "_" + cfg.Split
	cachePath := filepath.Join(l.cacheDir, cacheKey+".jsonl")

	if stat, err := os.Stat(cachePath); err == nil && time.Since(stat.ModTime()) < cacheTTL {
		l.logger.Debug("Using cached dataset %s", cachePath)
		return l.loadFile(cachePath)
	}

	rows, err := l.fetchAllRows(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := l.writeCache(cachePath, rows); err != nil {
		l.logger.Warn("Failed to cache dataset: %v", err)
	}

	return rows, nil
}

type rowsResponse struct {
	Rows []struct {
		RowIdx int `json:"row_idx"`
		Row    Row `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

func (l *Loader) fetchAllRows(ctx context.Context, cfg config.DatasetConfig) ([]Row, error) {
	var rows []Row
	offset := 0

	for {
		page, total, err := l.fetchPage(ctx, cfg, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch rows at offset %d: %w", offset, err)
		}
		rows = append(rows, page...)

		offset += len(page)
		if len(page) == 0 || offset >= total {
			break
		}

		if offset%2000 == 0 {
			l.logger.Info("Fetched %d/%d rows", offset, total)
		}
	}

	l.logger.Info("Fetched %d rows from %s (%s split)", len(rows), cfg.HFDataset, cfg.Split)
	return rows, nil
}

func (l *Loader) fetchPage(ctx context.Context, cfg config.DatasetConfig, offset int) ([]Row, int, error) {
	params := url.Values{}
	params.Set("dataset", cfg.HFDataset)
	params.Set("config", "default")
	params.Set("split", cfg.Split)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("length", strconv.Itoa(cfg.PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rowsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			l.logger.Warn("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("datasets server returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed rowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, err
	}

	page := make([]Row, len(parsed.Rows))
	for i, r := range parsed.Rows {
		page[i] = r.Row
	}
	return page, parsed.NumRowsTotal, nil
}

// loadFile parses rows from a local JSONL or JSON array file.
func (l *Loader) loadFile(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			l.logger.Warn("Failed to close file: %v", err)
		}
	}()

	rows, err := parseJSONL(file)
	if err == nil {
		return rows, nil
	}

	if _, serr := file.Seek(0, 0); serr != nil {
		return nil, fmt.Errorf("failed to reset file position: %w", serr)
	}

	var arr []Row
	if err := json.NewDecoder(file).Decode(&arr); err != nil {
		return nil, fmt.Errorf("failed to parse %s as JSONL or JSON array: %w", path, err)
	}
	return arr, nil
}

func parseJSONL(reader io.Reader) ([]Row, error) {
	decoder := json.NewDecoder(reader)
	var rows []Row
	for {
		var row Row
		if err := decoder.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeCache stores rows as JSONL with an atomic rename, so a partial
// download never poisons the cache.
func (l *Loader) writeCache(path string, rows []Row) error {
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	encoder := json.NewEncoder(file)
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			_ = file.Close()
			_ = os.Remove(tempPath)
			return fmt.Errorf("failed to encode row: %w", err)
		}
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// ClearCache removes all cached dataset snapshots.
func (l *Loader) ClearCache() error {
	return os.RemoveAll(l.cacheDir)
}
