// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"context"
	"fmt"
)

// Export renders r in format.
func Export(ctx context.Context, format Format, r Report) (*Result, error) {
	html, err := RenderHTML(r)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatHTML, "":
		return &Result{Data: []byte(html), Filename: filename(r.Title, "html"), MimeType: "text/html; charset=utf-8"}, nil
	case FormatPDF:
		return exportPDF(ctx, html, r.Title)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
