package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/redis/go-redis/v9"

	"talos/internal/model"
)

type Storage struct {
	Client *redis.Client
}

func NewStorage(host, port string) *Storage {
	rdb := redis.NewClient(&redis.Options{
		Addr: host + ":" + port,
		DB:   0,
	})
	return &Storage{Client: rdb}
}

// === Watchlist ===

func (s *Storage) GetWatchlist(ctx context.Context) ([]string, error) {
	return s.Client.LRange(ctx, "watchlist", 0, -1).Result()
}

func (s *Storage) AddWatchlistItem(ctx context.Context, target string) error {
	return s.Client.RPush(ctx, "watchlist", target).Err()
}

func (s *Storage) RemoveWatchlistItem(ctx context.Context, target string) error {
	return s.Client.LRem(ctx, "watchlist", 0, target).Err()
}

// === Scan history ===

func (s *Storage) GetScanHistory(ctx context.Context, target string) ([]model.HistoryEntry, error) {
	val, err := s.Client.LRange(ctx, "scan_history:"+target, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	var entries []model.HistoryEntry
	for _, v := range val {
		var entry model.HistoryEntry
		if err := json.Unmarshal([]byte(v), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// AddScanHistory prepends a snapshot unless it is identical to the latest
// one, keeping at most 100 entries per target.
func (s *Storage) AddScanHistory(ctx context.Context, target string, result interface{}) error {
	resBytes, _ := json.Marshal(result)
	resStr := string(resBytes)

	lastEntryJSON, err := s.Client.LIndex(ctx, "scan_history:"+target, 0).Result()
	if err == nil {
		var lastEntry model.HistoryEntry
		if json.Unmarshal([]byte(lastEntryJSON), &lastEntry) == nil {
			if lastEntry.Result == resStr {
				return nil // no change
			}
		}
	}

	entry := model.HistoryEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Result:    resStr,
	}
	entryBytes, _ := json.Marshal(entry)

	pipe := s.Client.Pipeline()
	pipe.LPush(ctx, "scan_history:"+target, string(entryBytes))
	pipe.LTrim(ctx, "scan_history:"+target, 0, 99)
	_, err = pipe.Exec(ctx)
	return err
}

// GetHistoryWithDiffs returns history entries (newest first) plus a unified
// diff for each consecutive pair, so changes between scans stand out.
func (s *Storage) GetHistoryWithDiffs(ctx context.Context, target string) ([]model.HistoryEntry, []string, error) {
	entries, err := s.GetScanHistory(ctx, target)
	if err != nil {
		return nil, nil, err
	}

	var diffs []string
	for i := 0; i+1 < len(entries); i++ {
		older := prettyJSON(entries[i+1].Result)
		newer := prettyJSON(entries[i].Result)
		edits := myers.ComputeEdits(span.URIFromPath(target), older, newer)
		diffs = append(diffs, fmt.Sprint(gotextdiff.ToUnified(entries[i+1].Timestamp, entries[i].Timestamp, older, edits)))
	}
	return entries, diffs, nil
}

func prettyJSON(raw string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return raw
	}
	return string(out) + "\n"
}

// === Result cache ===

func (s *Storage) CacheResult(ctx context.Context, rawURL string, result *model.AnalysisResult, ttl time.Duration) error {
	val, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, "cache:"+rawURL, val, ttl).Err()
}

func (s *Storage) GetCachedResult(ctx context.Context, rawURL string) (*model.AnalysisResult, error) {
	val, err := s.Client.Get(ctx, "cache:"+rawURL).Result()
	if err != nil {
		return nil, err
	}
	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
