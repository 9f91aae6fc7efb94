// Package source loads the delimited input datasets into text tables.
package source

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/grizzly-cli/internal/fetcher"
	"github.com/sells-group/grizzly-cli/internal/table"
)

// Load downloads the CSV at url and parses it into a table whose columns
// are the header row. No type conversion is applied.
func Load(ctx context.Context, f fetcher.Fetcher, url string) (*table.Table, error) {
	body, err := f.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "source: download %s", url)
	}
	defer body.Close() //nolint:errcheck

	t, err := Parse(ctx, body)
	if err != nil {
		return nil, eris.Wrapf(err, "source: parse %s", url)
	}
	zap.L().Info("source: loaded",
		zap.String("url", url),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns)),
	)
	return t, nil
}

// LoadFile parses a local CSV the same way Load parses a download.
func LoadFile(ctx context.Context, path string) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", path)
	}
	defer file.Close() //nolint:errcheck

	t, err := Parse(ctx, file)
	if err != nil {
		return nil, eris.Wrapf(err, "source: parse %s", path)
	}
	zap.L().Info("source: loaded",
		zap.String("path", path),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns)),
	)
	return t, nil
}

// Parse reads a headed CSV stream into a table.
func Parse(ctx context.Context, r io.Reader) (*table.Table, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "source: stream csv")
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
		return nil, eris.New("source: missing header row")
	}

	t, err := table.New(header, rows)
	if err != nil {
		return nil, eris.Wrap(err, "source: build table")
	}
	return t, nil
}
