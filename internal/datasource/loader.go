// Package datasource makes sure the raw CSV inputs exist locally before a
// run, downloading any that are missing from a configured base URL.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/ChronoBoot/loan-score/internal/datasource/httpds"
)

// Logger matches the stdlib log.Logger surface the pipeline uses.
type Logger interface {
	Printf(format string, v ...any)
}

// Loader mirrors missing source files into a local directory. With an empty
// BaseURL it only verifies presence and leaves fetching to whoever staged
// the directory. A nil Client falls back to the default HTTP client.
type Loader struct {
	BaseURL string
	Client  *httpds.Client
	Logger  Logger
}

// Ensure checks every name under dir and downloads the ones that are not
// there. A file that exists, whatever its content, is left alone.
func (l *Loader) Ensure(ctx context.Context, dir string, names []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("datasource: create %s: %w", dir, err)
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("datasource: stat %s: %w", path, err)
		}
		if l.BaseURL == "" {
			return fmt.Errorf("datasource: %s missing and no source base URL configured", path)
		}
		if err := l.download(ctx, name, path); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) download(ctx context.Context, name, path string) error {
	src, err := url.JoinPath(l.BaseURL, name)
	if err != nil {
		return fmt.Errorf("datasource: join url for %s: %w", name, err)
	}
	l.logf("downloading %s", src)

	client := l.Client
	if client == nil {
		client = httpds.NewClient(httpds.Config{})
	}
	body, err := client.Fetch(ctx, src)
	if err != nil {
		return fmt.Errorf("datasource: fetch %s: %w", name, err)
	}
	defer body.Close()

	// Write via a temp file so a failed download never leaves a partial
	// CSV that a later run would mistake for the real thing.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+name+".*")
	if err != nil {
		return fmt.Errorf("datasource: temp for %s: %w", name, err)
	}
	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("datasource: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("datasource: rename %s: %w", name, err)
	}
	l.logf("downloaded %s (%d bytes)", name, n)
	return nil
}

func (l *Loader) logf(format string, v ...any) {
	if l.Logger != nil {
		l.Logger.Printf(format, v...)
	}
}
