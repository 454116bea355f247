package domain

import (
	"testing"
	"time"
)

func TestNewCrawl(t *testing.T) {
	job := &CrawlJob{
		RequestID:    "pl1_2025_01_01_00_00_x",
		PlaylistID:   "pl1",
		ClientOrigin: "web",
		CreatedAt:    time.Now(),
	}

	crawl, err := NewCrawl(job)
	if err != nil {
		t.Fatalf("NewCrawl() error: %v", err)
	}

	if crawl.ID != job.RequestID {
		t.Errorf("crawl.ID = %q, want %q", crawl.ID, job.RequestID)
	}
	if crawl.Status != CrawlStatusPending {
		t.Errorf("crawl.Status = %v, want %v", crawl.Status, CrawlStatusPending)
	}
}

func TestNewCrawl_Validation(t *testing.T) {
	tests := []struct {
		name string
		job  *CrawlJob
	}{
		{name: "nil job", job: nil},
		{name: "empty request id", job: &CrawlJob{PlaylistID: "pl1"}},
		{name: "empty playlist id", job: &CrawlJob{RequestID: "req"}},
		{name: "malformed playlist id", job: &CrawlJob{RequestID: "req", PlaylistID: "not/an id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCrawl(tt.job); err == nil {
				t.Error("NewCrawl() expected error")
			}
		})
	}
}

func TestNewCrawlJob(t *testing.T) {
	job, err := NewCrawlJob("https://open.spotify.com/playlist/abc123?si=x", "mobile")
	if err != nil {
		t.Fatalf("NewCrawlJob() error: %v", err)
	}
	if job.PlaylistID != "abc123" {
		t.Errorf("job.PlaylistID = %q, want %q", job.PlaylistID, "abc123")
	}
	if job.RequestID == "" {
		t.Error("job.RequestID should not be empty")
	}

	if _, err := NewCrawlJob("", "mobile"); err == nil {
		t.Error("NewCrawlJob(empty) expected error")
	}
}

func TestCrawl_StateTransitions(t *testing.T) {
	crawl, _ := NewCrawl(&CrawlJob{RequestID: "req", PlaylistID: "pl1"})

	crawl.StartFetching()
	if crawl.Status != CrawlStatusFetching {
		t.Errorf("after StartFetching status = %v, want %v", crawl.Status, CrawlStatusFetching)
	}

	crawl.StartMatching(45, 30)
	if crawl.Status != CrawlStatusMatching {
		t.Errorf("after StartMatching status = %v, want %v", crawl.Status, CrawlStatusMatching)
	}
	if crawl.OriginalTracks != 45 || crawl.TotalTracks != 30 {
		t.Errorf("counts = %d/%d, want 45/30", crawl.OriginalTracks, crawl.TotalTracks)
	}

	crawl.UpdateProgress(15, 10, 4, 1)
	if got := crawl.Progress(); got != 50 {
		t.Errorf("Progress() = %d, want 50", got)
	}

	crawl.StartPersisting()
	if crawl.Status != CrawlStatusPersisting {
		t.Errorf("after StartPersisting status = %v, want %v", crawl.Status, CrawlStatusPersisting)
	}

	crawl.Complete()
	if !crawl.Status.IsTerminal() {
		t.Error("completed crawl should be terminal")
	}
	if crawl.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}
}

func TestCrawl_Fail(t *testing.T) {
	crawl, _ := NewCrawl(&CrawlJob{RequestID: "req", PlaylistID: "pl1"})

	crawl.Fail("catalog unavailable")

	if crawl.Status != CrawlStatusFailed {
		t.Errorf("crawl.Status = %v, want %v", crawl.Status, CrawlStatusFailed)
	}
	if crawl.ErrorMessage != "catalog unavailable" {
		t.Errorf("crawl.ErrorMessage = %q", crawl.ErrorMessage)
	}
}

func TestCrawlStatus_IsValid(t *testing.T) {
	tests := []struct {
		status CrawlStatus
		want   bool
	}{
		{CrawlStatusPending, true},
		{CrawlStatusPersisting, true},
		{CrawlStatusFailed, true},
		{CrawlStatus("CREATING"), false},
		{CrawlStatus(""), false},
	}

	for _, tt := range tests {
		if got := tt.status.IsValid(); got != tt.want {
			t.Errorf("CrawlStatus(%q).IsValid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
