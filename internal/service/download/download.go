package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/oshokin/build-installer/internal/logger"
)

// partialSuffix marks a download that has not completed yet.
const partialSuffix = ".part"

// ErrBadHTTPStatus is returned for non-2xx responses.
var ErrBadHTTPStatus = errors.New("unexpected http status")

// File streams url into target, replacing any previous copy.
// The body is written to target+".part" and renamed once complete, so an
// interrupted download never leaves a truncated file under the final name.
// A nil client means http.DefaultClient.
func File(ctx context.Context, client *http.Client, url, target string) (int64, error) {
	if client == nil {
		client = http.DefaultClient
	}

	target = filepath.Clean(target)

	if _, err := os.Stat(target); err == nil {
		logger.InfoKV(ctx, "Previous download found, removing", "path", target)

		if err = os.Remove(target); err != nil {
			return 0, fmt.Errorf("remove previous download: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, err
	}

	logger.InfoKV(ctx, "Beginning download", "url", url, "path", target)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", url, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("%s, %s: %w", url, resp.Status, ErrBadHTTPStatus)
	}

	partial := target + partialSuffix

	written, err := writeFile(partial, resp.Body)
	if err != nil {
		_ = os.Remove(partial)
		return 0, err
	}

	if err = os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return 0, fmt.Errorf("move download into place: %w", err)
	}

	logger.InfoKV(ctx, "Download complete", "path", target, "bytes", written)

	return written, nil
}

// writeFile copies r into a newly created file at path.
func writeFile(path string, r io.Reader) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create download file: %w", err)
	}

	written, err := io.Copy(out, r)
	if err != nil {
		_ = out.Close()
		return written, fmt.Errorf("write download file: %w", err)
	}

	if err = out.Close(); err != nil {
		return written, fmt.Errorf("close download file: %w", err)
	}

	return written, nil
}
