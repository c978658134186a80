package download

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/hydromet/meteosat/internal/logger"
)

// progressInterval is the number of bytes between two progress reports.
const progressInterval = 16 * 1024 * 1024

// progressReader wraps an io.Reader and logs transfer progress at debug level.
type progressReader struct {
	r          io.Reader
	source     string
	total      int64 // -1 when the server sent no Content-Length
	read       int64
	lastReport int64
}

func newProgressReader(r io.Reader, source string, total int64) *progressReader {
	return &progressReader{r: r, source: source, total: total}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		if pr.read-pr.lastReport >= progressInterval {
			pr.lastReport = pr.read
			pr.report()
		}
	}
	return n, err
}

func (pr *progressReader) report() {
	fields := logger.Fields{
		"url":        pr.source,
		"downloaded": humanize.Bytes(uint64(pr.read)),
	}
	if pr.total > 0 {
		fields["total"] = humanize.Bytes(uint64(pr.total))
		fields["percent"] = humanize.FtoaWithDigits(float64(pr.read)*100/float64(pr.total), 2)
	}
	logger.Debug("download progress", fields)
}
