// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package export renders a cohort result as an HTML page or, through
// headless Chrome, a PDF.
package export
