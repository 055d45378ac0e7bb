package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/brogergvhs/pocketbot/internal/ui"
)

// buildArchive downloads every page sequentially into one in-memory ZIP.
// Pages answering non-200 are skipped and the survivors renumbered by
// successful-fetch order, so entries stay consecutive. A transport-level
// failure aborts the whole archive. Returns the archive bytes, the number of
// stored entries and the total image bytes fetched.
func buildArchive(
	ctx context.Context,
	client *http.Client,
	urls []string,
	handle *ui.ProgressHandle,
	log *zap.SugaredLogger,
) ([]byte, int, int64, error) {

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	handle.SetTotal(len(urls))
	defer handle.MarkDone()

	var stored int
	var totalBytes int64

	for i, u := range urls {
		data, skipped, err := fetchPage(ctx, client, u)
		if err != nil {
			_ = zw.Close()
			return nil, stored, totalBytes, err
		}
		if skipped {
			log.Warnw("page skipped", "index", i+1, "url", u)
			handle.Update(i+1, totalBytes)
			continue
		}

		stored++
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   fmt.Sprintf("page_%d.jpg", stored),
			Method: zip.Deflate,
		})
		if err != nil {
			_ = zw.Close()
			return nil, stored, totalBytes, err
		}
		if _, err := w.Write(data); err != nil {
			_ = zw.Close()
			return nil, stored, totalBytes, err
		}

		totalBytes += int64(len(data))
		handle.Update(i+1, totalBytes)
	}

	if err := zw.Close(); err != nil {
		return nil, stored, totalBytes, err
	}

	return buf.Bytes(), stored, totalBytes, nil
}

// fetchPage gets one page image. A non-200 answer is a per-page condition
// (skipped=true); anything transport-level is returned as an error.
func fetchPage(ctx context.Context, client *http.Client, u string) (data []byte, skipped bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, true, nil
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	return data, false, nil
}
