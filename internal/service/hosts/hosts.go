package hosts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/logger"
)

const (
	// Filename is the hosts file every installation reads its license and job hosts from.
	Filename = "schrodinger.hosts"

	// FileMode is applied to the installed hosts file.
	FileMode os.FileMode = 0o644
)

var (
	// ErrBadHTTPStatus is returned when the hosts generator answers with a non-2xx status.
	ErrBadHTTPStatus = errors.New("unexpected http status")

	errEmptyHostsFile = errors.New("hosts generator returned an empty file")
)

// Form returns the request fields the hosts generator expects for bundle.
func Form(bundle suite.Bundle) url.Values {
	return url.Values{
		"build_type": {string(bundle.BuildType)},
		"release":    {bundle.Release.String()},
		"build_id":   {bundle.Build.String()},
	}
}

// Install asks the hosts generator for a hosts file matching form and places
// it into installDir, replacing the one shipped with the installation.
func Install(ctx context.Context, client *http.Client, generatorURL string, form url.Values, installDir string) error {
	logger.InfoKV(ctx, "Requesting hosts file", "url", generatorURL, "form", form.Encode())

	body, err := generate(ctx, client, generatorURL, form)
	if err != nil {
		return err
	}

	target := filepath.Join(installDir, Filename)

	// Apply swaps the new content in next to an existing target.
	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		var placeholder *os.File

		placeholder, err = os.OpenFile(target, os.O_CREATE|os.O_WRONLY, FileMode)
		if err != nil {
			return fmt.Errorf("create %s: %w", target, err)
		}

		if err = placeholder.Close(); err != nil {
			return err
		}
	}

	err = goupdate.Apply(strings.NewReader(body), goupdate.Options{
		TargetPath: target,
		TargetMode: FileMode,
	})
	if err != nil {
		return fmt.Errorf("apply hosts file: %w", err)
	}

	logger.InfoKV(ctx, "Installed hosts file", "path", target)

	return nil
}

func generate(ctx context.Context, client *http.Client, generatorURL string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, generatorURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request hosts file: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%s, %s: %w", generatorURL, resp.Status, ErrBadHTTPStatus)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read hosts file: %w", err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return "", errEmptyHostsFile
	}

	return string(data), nil
}
