// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"errors"
	"time"

	"github.com/danielhkuo/envision/results"
)

// Format is an export output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// Result is a rendered export.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrUnsupportedFormat is returned for formats other than html and pdf.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrPDFDependencyMissing means no Chromium binary was found.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)

// RankedIdea is one row of the ranking table.
type RankedIdea struct {
	Position int
	Content  string
	Score    float64
}

// Report is everything the cohort report shows.
type Report struct {
	Title       string
	Description string
	Modules     []string
	Model       string
	GeneratedAt time.Time
	Cohort      results.CohortResult
	Ranking     []RankedIdea
}
