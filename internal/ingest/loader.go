package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/cloo-solutions/askdsa/internal/domain"
	"github.com/ledongthuc/pdf"
)

// Document is a loaded source document as an ordered sequence of page texts.
type Document struct {
	Source string
	Pages  []string
}

// ObjectFetcher fetches a raw object from S3-compatible storage.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Loader reads a source document from a local path or an s3:// URI and
// extracts its page texts. PDF sources are parsed per page; anything else is
// treated as plain text.
type Loader struct {
	fetcher ObjectFetcher
}

func NewLoader(fetcher ObjectFetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load reads and parses the document at src. Load failures are fatal to an
// ingestion run; there is no partial success.
func (l *Loader) Load(ctx context.Context, src string) (*Document, error) {
	name := path.Base(strings.TrimSuffix(src, "/"))

	var data []byte
	if bucket, key, ok := parseS3URI(src); ok {
		if l.fetcher == nil {
			return nil, fmt.Errorf("s3 source %q requires storage credentials", src)
		}
		var err error
		data, err = l.fetcher.FetchObject(ctx, bucket, key)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeNotFound, "failed to fetch source object", err)
		}
		name = path.Base(key)
	} else {
		var err error
		data, err = os.ReadFile(src)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, domain.ErrDocumentNotFound
			}
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
	}

	var pages []string
	var err error
	if strings.EqualFold(path.Ext(name), ".pdf") {
		pages, err = pdfPages(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pdf: %w", err)
		}
	} else {
		pages = textPages(data)
	}

	if !hasText(pages) {
		return nil, domain.ErrEmptyDocument
	}

	return &Document{Source: name, Pages: pages}, nil
}

// parseS3URI splits s3://bucket/key into its parts.
func parseS3URI(src string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(src, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

func pdfPages(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}

// textPages treats form feeds as page separators; most plain-text sources
// yield a single page.
func textPages(data []byte) []string {
	return strings.Split(string(data), "\f")
}

func hasText(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}
