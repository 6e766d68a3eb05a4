// Package docsource loads the raw text corpus from a directory. Plain
// text and markdown pass through; HTML is reduced to its text content.
package docsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/xhad/tier0/internal/models"
)

type DirSourceConfig struct {
	Path string
}

// DirSource reads every supported file under one directory. Documents
// are immutable once loaded; ids derive from filenames so reloads are
// stable.
type DirSource struct {
	config DirSourceConfig
	logger *zap.Logger
}

var yearRe = regexp.MustCompile(`20\d{2}`)

func NewDirSource(config DirSourceConfig, logger *zap.Logger) (*DirSource, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("document source path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirSource{config: config, logger: logger}, nil
}

// Load reads the corpus in filename order. A file that cannot be read or
// yields no text is logged and skipped; ingestion proceeds with the rest.
func (s *DirSource) Load(_ context.Context) ([]models.Document, error) {
	entries, err := os.ReadDir(s.config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md", ".html", ".htm":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []models.Document
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(s.config.Path, name))
		if err != nil {
			s.logger.Warn("skipping unreadable document", zap.String("file", name), zap.Error(err))
			continue
		}

		text := string(raw)
		if ext := strings.ToLower(filepath.Ext(name)); ext == ".html" || ext == ".htm" {
			text, err = extractHTMLText(text)
			if err != nil {
				s.logger.Warn("skipping unparsable document", zap.String("file", name), zap.Error(err))
				continue
			}
		}
		if strings.TrimSpace(text) == "" {
			s.logger.Warn("skipping empty document", zap.String("file", name))
			continue
		}

		docs = append(docs, models.Document{
			ID:        strings.TrimSuffix(name, filepath.Ext(name)),
			Filename:  name,
			Text:      text,
			PageCount: strings.Count(text, "\f") + 1,
			Year:      extractYear(name),
		})
	}

	s.logger.Info("loaded document corpus",
		zap.Int("documents", len(docs)),
		zap.String("path", s.config.Path))
	return docs, nil
}

// extractYear pulls the first 20xx token from a filename, 0 if none.
func extractYear(filename string) int {
	match := yearRe.FindString(filename)
	if match == "" {
		return 0
	}
	year := 0
	for _, r := range match {
		year = year*10 + int(r-'0')
	}
	return year
}

func extractHTMLText(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, header, footer").Remove()

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, pre").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	})
	if b.Len() == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return b.String(), nil
}
