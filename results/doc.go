// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package results turns workshop scores into model-written narratives.

Prompts are rendered with text/template from the combined ranking and only
describe the modules the workspace has enabled. Every response is decoded
into a typed struct and checked with go-playground/validator before anything
is stored:

	stored, err := svc.GenerateCohortResult(ctx, ws)
	if errors.Is(err, results.ErrGenerationFailed) {
		// model error, empty content or schema mismatch; nothing was written
	}

GenerateAllPersonalized fans out with errgroup under a concurrency limit and
reports per-participant failures instead of stopping.
*/
package results
