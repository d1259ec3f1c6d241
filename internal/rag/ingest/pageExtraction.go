package ingest

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/dslipak/pdf"
)

const pageExtractTimeout = 10 * time.Second

type Page struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

func extractPDF(path string) ([]Page, error) {
	logger.Debug("extractPDF", "attempting extraction", path)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat pdf: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		logger.Error("failed opening of pdf file", "error", err)
		return nil, fmt.Errorf("%w: not a readable pdf: %v", commonModels.ErrInvalidUpload, err)
	}

	var pages []Page
	numPages := reader.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			logger.Debug("extractPDF", "page value is null", i)
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// Log warning but continue with other pages
			logger.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}

		pages = append(pages, Page{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// protectExtract bounds a single page extraction in time and turns parser panics into errors.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("page parser panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageExtractTimeout):
		logger.Error("pageExtract", "timeout", pageExtractTimeout)
		return "", errors.New("timeout")
	}
}
