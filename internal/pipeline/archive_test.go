package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/brogergvhs/pocketbot/internal/scraper"
	"github.com/brogergvhs/pocketbot/internal/util"
)

func pageServer(t *testing.T, failIndex int, n int) (*httptest.Server, []string) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var idx int
		if _, err := fmt.Sscanf(r.URL.Path, "/pages/%d.jpg", &idx); err != nil {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if idx == failIndex {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, "image-%d", idx)
	}))
	t.Cleanup(srv.Close)

	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/pages/%d.jpg", srv.URL, i+1)
	}
	return srv, urls
}

func testClient(t *testing.T) *http.Client {
	t.Helper()
	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:   5 * time.Second,
		Transport: http.DefaultTransport,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func readEntries(t *testing.T, data []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error: %v", err)
	}

	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		_ = rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

func TestBuildArchiveAllPages(t *testing.T) {
	_, urls := pageServer(t, 0, 3)

	data, stored, size, err := buildArchive(context.Background(), testClient(t), urls, nil, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("buildArchive() error: %v", err)
	}
	if stored != 3 {
		t.Errorf("stored = %d, want 3", stored)
	}
	if size == 0 {
		t.Error("size = 0, want image bytes counted")
	}

	entries := readEntries(t, data)
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("page_%d.jpg", i)
		if entries[name] != fmt.Sprintf("image-%d", i) {
			t.Errorf("entry %s = %q", name, entries[name])
		}
	}
}

func TestBuildArchiveSkipsAndRenumbers(t *testing.T) {
	// Page 2 of 4 answers 403; survivors must renumber without gaps.
	_, urls := pageServer(t, 2, 4)

	data, stored, _, err := buildArchive(context.Background(), testClient(t), urls, nil, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("buildArchive() error: %v", err)
	}
	if stored != 3 {
		t.Errorf("stored = %d, want 3", stored)
	}

	entries := readEntries(t, data)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	want := map[string]string{
		"page_1.jpg": "image-1",
		"page_2.jpg": "image-3",
		"page_3.jpg": "image-4",
	}
	for name, content := range want {
		if entries[name] != content {
			t.Errorf("entry %s = %q, want %q", name, entries[name], content)
		}
	}
	if _, ok := entries["page_4.jpg"]; ok {
		t.Error("gap-preserving numbering leaked through: page_4.jpg exists")
	}
}

func TestBuildArchiveTransportErrorAborts(t *testing.T) {
	srv, urls := pageServer(t, 0, 2)
	srv.Close() // connection refused for every page

	_, _, _, err := buildArchive(context.Background(), testClient(t), urls, nil, zap.NewNop().Sugar())
	if err == nil {
		t.Fatal("expected transport error to abort the archive")
	}
}

func TestDeliverArchiveEndToEnd(t *testing.T) {
	_, urls := pageServer(t, 3, 3)

	sender := &fakeSender{}
	fetcher := &fakeFetcher{ch: &scraper.Chapter{Title: "Demo", Label: "Ch.1", Pages: urls}}

	p := New(Options{
		Sender:    sender,
		Fetcher:   fetcher,
		Logger:    zap.NewNop().Sugar(),
		Timeout:   5 * time.Second,
		Transport: http.DefaultTransport,
	})
	p.Deliver(context.Background(), 42, validID, ModeArchive)

	if len(sender.calls) != 3 {
		t.Fatalf("calls = %+v, want announce + zip notice + document", sender.calls)
	}
	if sender.calls[0].text != "Demo - Ch.1" {
		t.Errorf("announce = %q", sender.calls[0].text)
	}
	if sender.calls[1].text != msgZipStarting {
		t.Errorf("zip notice = %q, want %q", sender.calls[1].text, msgZipStarting)
	}

	doc := sender.calls[2]
	if doc.kind != "document" {
		t.Fatalf("third call kind = %s, want document", doc.kind)
	}
	if doc.item.Name != "Demo_Ch.1.zip" {
		t.Errorf("document name = %q, want Demo_Ch.1.zip", doc.item.Name)
	}

	raw, err := io.ReadAll(doc.item.Data)
	if err != nil {
		t.Fatal(err)
	}
	entries := readEntries(t, raw)
	if len(entries) != 2 {
		t.Errorf("archive entries = %d, want 2 (page 3 failed)", len(entries))
	}
}
