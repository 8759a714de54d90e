package export

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/newthinker/stockscreen/internal/core"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Writer renders screened lists as text files, one instrument per line:
// the code, followed by a tab and the name when the name is known.
type Writer struct {
	target Target
	enc    encoding.Encoding
	logger *zap.Logger
}

// NewWriter creates a writer for target. charset is "utf-8" (default) or "gbk".
func NewWriter(target Target, charset string, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	enc, err := lookup(charset)
	if err != nil {
		return nil, err
	}
	return &Writer{target: target, enc: enc, logger: logger}, nil
}

func lookup(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "gbk":
		return simplifiedchinese.GBK, nil
	}
	return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown export encoding %q", charset))
}

// Path returns the export path of one strategy's list.
func Path(date string, kind core.PeriodKind, strategy string) string {
	return path.Join(date, string(kind), strategy+".txt")
}

// Write exports the passing instruments of one strategy run and returns the
// path written. An empty list still writes an empty file.
func (w *Writer) Write(ctx context.Context, date string, kind core.PeriodKind, strategy string, passed []core.Instrument) (string, error) {
	var buf bytes.Buffer
	for _, inst := range passed {
		buf.WriteString(inst.Code)
		if inst.Name != "" {
			buf.WriteByte('\t')
			buf.WriteString(inst.Name)
		}
		buf.WriteByte('\n')
	}

	data, _, err := transform.Bytes(w.enc.NewEncoder(), buf.Bytes())
	if err != nil {
		return "", core.WrapError(core.ErrExportFailed, fmt.Errorf("encoding %s: %w", strategy, err))
	}

	p := Path(date, kind, strategy)
	if err := w.target.Write(ctx, p, data); err != nil {
		return "", core.WrapError(core.ErrExportFailed, fmt.Errorf("writing %s: %w", p, err))
	}

	w.logger.Info("exported screen result",
		zap.String("path", p),
		zap.Int("count", len(passed)),
	)
	return p, nil
}

// Read decodes an exported list back into instruments.
func (w *Writer) Read(ctx context.Context, p string) ([]core.Instrument, error) {
	data, err := w.target.Read(ctx, p)
	if err != nil {
		return nil, core.WrapError(core.ErrExportFailed, fmt.Errorf("reading %s: %w", p, err))
	}

	var out []core.Instrument
	scanner := bufio.NewScanner(transform.NewReader(bytes.NewReader(data), w.enc.NewDecoder()))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		code, name, _ := strings.Cut(line, "\t")
		out = append(out, core.Instrument{Code: code, Name: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, core.WrapError(core.ErrExportFailed, err)
	}
	return out, nil
}

// List returns the export paths under date, or every path when date is empty.
func (w *Writer) List(ctx context.Context, date string) ([]string, error) {
	return w.target.List(ctx, date)
}
