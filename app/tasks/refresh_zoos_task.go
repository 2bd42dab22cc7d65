package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sobako/babywatch/app/store"
)

// Wikipedia category listing for Japanese zoos. The API's usage policy asks
// for a descriptive User-Agent; rejections get a single bounded retry.
const wikipediaZooCategoryURL = "https://ja.wikipedia.org/w/api.php" +
	"?action=query&list=categorymembers" +
	"&cmtitle=Category:%E6%97%A5%E6%9C%AC%E3%81%AE%E5%8B%95%E7%89%A9%E5%9C%92" +
	"&cmlimit=500&format=json"

var parentheticalRe = regexp.MustCompile(`\s*[（(][^（()）]*[)）]\s*`)

// RefreshZoosTask refreshes the zoo reference list from Wikipedia's category
// listing.
type RefreshZoosTask struct {
	Task
	zoos       store.ZooRepository
	logs       store.LogRepository
	httpClient *http.Client
	userAgent  string
	apiURL     string
}

func NewRefreshZoosTask(zoos store.ZooRepository, logs store.LogRepository,
	httpClient *http.Client, userAgent string) *RefreshZoosTask {
	return &RefreshZoosTask{
		Task:       NewTask(JobZoos),
		zoos:       zoos,
		logs:       logs,
		httpClient: httpClient,
		userAgent:  userAgent,
		apiURL:     wikipediaZooCategoryURL,
	}
}

type categoryMembersResponse struct {
	Query struct {
		CategoryMembers []struct {
			Title string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

func (t *RefreshZoosTask) Execute(ctx context.Context) error {
	started := time.Now().UTC()
	counters := runCounters{}

	data, err := fetchWithRetry(ctx, t.httpClient, t.apiURL, t.userAgent)
	if err != nil {
		logJob(ctx, t.logs, failedLog(JobZoos, started, err))
		return err
	}

	var decoded categoryMembersResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		err = fmt.Errorf("failed to decode category listing: %w", err)
		logJob(ctx, t.logs, failedLog(JobZoos, started, err))
		return err
	}

	counters.total = len(decoded.Query.CategoryMembers)

	seen := make(map[string]bool)
	var names []string
	for _, member := range decoded.Query.CategoryMembers {
		name := strings.TrimSpace(parentheticalRe.ReplaceAllString(member.Title, ""))
		if name == "" || strings.HasPrefix(name, "Category:") || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	if len(names) > 0 {
		inserted, err := t.zoos.UpsertZoos(ctx, names)
		counters.inserted = inserted
		if err != nil {
			logJob(ctx, t.logs, failedLog(JobZoos, started, err))
			return err
		}
	}

	logJob(ctx, t.logs, successLog(JobZoos, started, counters))

	slog.Info("Task completed",
		"job", JobZoos,
		"duration", t.GetDuration(),
		"total", counters.total,
		"inserted", counters.inserted)

	return nil
}
