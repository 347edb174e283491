package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/freightdesk/internal/client"
	"github.com/alfredjeanlab/freightdesk/internal/model"
	"github.com/alfredjeanlab/freightdesk/internal/query"
)

const testTotal = 40

// backend serves testTotal orders, 15 per page. The record at index 17
// has no id.
func backend(calls *atomic.Int32) query.Fetcher {
	return query.FetcherFunc(func(_ context.Context, q url.Values) (*client.ListResponse, error) {
		calls.Add(1)
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		resp := &client.ListResponse{TotalItems: testTotal}
		for i := (page - 1) * limit; i < min(page*limit, testTotal); i++ {
			rec := model.RawRecord{"_id": fmt.Sprintf("order%06d", i), "loadNumber": fmt.Sprintf("L%d", i)}
			if i == 17 {
				delete(rec, "_id")
			}
			resp.Items = append(resp.Items, rec)
		}
		return resp, nil
	})
}

func newStore(f query.Fetcher) *query.Store {
	return query.New(f, query.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func nonEmptyLines(s string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func TestExportJSONL_AllPages(t *testing.T) {
	var calls atomic.Int32
	store := newStore(backend(&calls))
	dr, _ := model.ParseDateRange("2024-03-01", "2024-03-31")

	var buf bytes.Buffer
	sum, err := ExportJSONL(context.Background(), store, query.PageRequest{Page: 7, Search: "l1", Dates: dr, SecondaryFilter: "c42"}, &buf)
	if err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}

	want := Summary{Pages: 3, Records: testTotal, Failed: 1, TotalItems: testTotal}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
	if calls.Load() != 3 {
		t.Errorf("fetches = %d, want 3", calls.Load())
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1+testTotal {
		t.Fatalf("lines = %d, want %d", len(lines), 1+testTotal)
	}

	var h struct {
		Version    string `json:"version"`
		Type       string `json:"type"`
		TotalItems int    `json:"total_items"`
		Query      struct {
			Search          map[string]*string `json:"search"`
			SecondaryFilter string             `json:"secondary_filter"`
			StartDate       string             `json:"start_date"`
		} `json:"query"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("header: %v", err)
	}
	if h.Type != "header" || h.Version != FormatVersion || h.TotalItems != testTotal {
		t.Errorf("header = %+v", h)
	}
	if v := h.Query.Search["loadNumber"]; v == nil || *v != "L1" {
		t.Errorf("header search = %v", h.Query.Search)
	}
	if h.Query.SecondaryFilter != "c42" || h.Query.StartDate != "2024-03-01" {
		t.Errorf("header query = %+v", h.Query)
	}

	var rec struct {
		Type string              `json:"type"`
		Data model.DisplayRecord `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Type != "order" || rec.Data.ID != "order000000" {
		t.Errorf("first record = %+v", rec)
	}
	if err := json.Unmarshal([]byte(lines[1+17]), &rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !rec.Data.Failed || rec.Data.ID != model.ErrorRecordID {
		t.Errorf("record 17 = %+v, want placeholder", rec.Data)
	}
}

func TestExportJSONL_Empty(t *testing.T) {
	store := newStore(query.FetcherFunc(func(context.Context, url.Values) (*client.ListResponse, error) {
		return &client.ListResponse{}, nil
	}))
	var buf bytes.Buffer
	sum, err := ExportJSONL(context.Background(), store, query.PageRequest{}, &buf)
	if err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}
	if sum.Pages != 1 || sum.Records != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if n := len(nonEmptyLines(buf.String())); n != 1 {
		t.Errorf("lines = %d, want header only", n)
	}
}

func TestExportJSONL_FetchError(t *testing.T) {
	boom := errors.New("backend down")
	store := newStore(query.FetcherFunc(func(_ context.Context, q url.Values) (*client.ListResponse, error) {
		if q.Get("page") == "2" {
			return nil, boom
		}
		return &client.ListResponse{TotalItems: 30, Items: []model.RawRecord{{"_id": "x"}}}, nil
	}))
	_, err := ExportJSONL(context.Background(), store, query.PageRequest{}, io.Discard)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped backend error", err)
	}
	if !strings.Contains(err.Error(), "page 2") {
		t.Errorf("err = %v, want page number", err)
	}
}

func TestFileDestination(t *testing.T) {
	dir := t.TempDir()

	t.Run("ExplicitFile", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "report.jsonl")
		loc, err := FileDestination{Path: path}.Write(context.Background(), []byte("{}\n"))
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		if loc != path {
			t.Errorf("location = %q, want %q", loc, path)
		}
		if data, _ := os.ReadFile(path); string(data) != "{}\n" {
			t.Errorf("contents = %q", data)
		}
	})

	t.Run("Directory", func(t *testing.T) {
		loc, err := FileDestination{Path: dir}.Write(context.Background(), []byte("x"))
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		if filepath.Dir(loc) != dir || !strings.HasPrefix(filepath.Base(loc), ReportName+"-") {
			t.Errorf("location = %q", loc)
		}
	})

	t.Run("EmptyPath", func(t *testing.T) {
		if _, err := (FileDestination{}).Write(context.Background(), nil); err == nil {
			t.Error("expected error for empty path")
		}
	})
}

// s3Capture is a minimal stand-in for an S3 endpoint that accepts PUTs.
type s3Capture struct {
	mu    sync.Mutex
	paths []string
}

func (s *s3Capture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.mu.Unlock()
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

func TestS3Destination_Write(t *testing.T) {
	capture := &s3Capture{}
	srv := httptest.NewServer(capture)
	t.Cleanup(srv.Close)

	home := t.TempDir()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(home, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(home, "credentials"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	dest, err := NewS3Destination(context.Background(), "reports-bucket", "reports/", "us-east-1", srv.URL)
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}
	loc, err := dest.Write(context.Background(), []byte(`{"type":"header"}`+"\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(loc, "s3://reports-bucket/reports/"+ReportName+"-") {
		t.Errorf("location = %q", loc)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if len(capture.paths) != 1 {
		t.Fatalf("PUTs = %d, want 1", len(capture.paths))
	}
	want := "/reports-bucket/" + strings.TrimPrefix(loc, "s3://reports-bucket/")
	if capture.paths[0] != want {
		t.Errorf("path-style PUT path = %q, want %q", capture.paths[0], want)
	}
}

func TestNewS3Destination_RequiresBucket(t *testing.T) {
	if _, err := NewS3Destination(context.Background(), "", "", "us-east-1", ""); err == nil {
		t.Fatal("expected error without bucket")
	}
}

// memDestination records payloads in memory.
type memDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *memDestination) Write(_ context.Context, data []byte) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.writes.Add(1)
	d.last.Store(bytes.Clone(data))
	return "mem", nil
}

func TestScheduler_RunOnce(t *testing.T) {
	var calls atomic.Int32
	store := newStore(backend(&calls))
	good := &memDestination{}
	bad := &memDestination{err: errors.New("disk full")}

	sched := NewScheduler(store, query.PageRequest{}, []Destination{good, bad}, time.Hour, nil)
	res, err := sched.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v, want joined destination error", err)
	}
	if len(res.Locations) != 1 || res.Locations[0] != "mem" {
		t.Errorf("locations = %v", res.Locations)
	}
	if res.Summary.Records != testTotal || res.Bytes == 0 {
		t.Errorf("result = %+v", res)
	}
	if good.writes.Load() != 1 {
		t.Errorf("writes = %d, want 1", good.writes.Load())
	}
}

func TestScheduler_StartStop(t *testing.T) {
	var calls atomic.Int32
	store := newStore(backend(&calls))
	dest := &memDestination{}

	sched := NewScheduler(store, query.PageRequest{}, []Destination{dest}, 50*time.Millisecond,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	sched.Start()

	// Wait for at least the initial export + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}
	// Scheduled runs bypass the page cache: 3 pages per run.
	if got := calls.Load(); got < 6 {
		t.Errorf("fetches = %d, want at least 6", got)
	}
	data, _ := dest.last.Load().([]byte)
	if n := len(nonEmptyLines(string(data))); n != 1+testTotal {
		t.Errorf("lines = %d, want %d", n, 1+testTotal)
	}
}
