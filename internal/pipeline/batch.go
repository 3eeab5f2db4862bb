package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// BatchResult is the outcome for one page of a batch.
type BatchResult struct {
	Page  Page
	Sheet *Sheet
	Err   error
}

// ProcessBatch reads pages concurrently with at most Options.Workers in
// flight, each under its own PageTimeout. Results come back in input order;
// a failed page carries its error and does not stop the others. Pages not
// started before ctx ends fail with ctx.Err().
func (p *Processor) ProcessBatch(ctx context.Context, pages []Page, ref Reference) []BatchResult {
	results := make([]BatchResult, len(pages))
	if len(pages) == 0 {
		return results
	}

	type pageResult struct {
		idx   int
		sheet *Sheet
		err   error
	}
	done := make(chan pageResult, len(pages))
	sem := make(chan struct{}, p.workers(len(pages)))
	start := time.Now()

	for i, page := range pages {
		results[i].Page = page
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			done <- pageResult{idx: i, err: ctx.Err()}
			continue
		}
		go func(i int, page Page) {
			defer func() { <-sem }()
			pctx, cancel := p.pageContext(ctx)
			defer cancel()
			s, err := p.ProcessPage(pctx, page, ref)
			done <- pageResult{idx: i, sheet: s, err: err}
		}(i, page)
	}

	failed := 0
	for range pages {
		r := <-done
		results[r.idx].Sheet = r.sheet
		results[r.idx].Err = r.err
		if r.err != nil {
			failed++
			p.log.WithError(r.err).WithField("source", results[r.idx].Page.Source).Warn("Page failed")
		}
	}

	p.log.WithFields(logrus.Fields{
		"pages":   len(pages),
		"failed":  failed,
		"elapsed": time.Since(start).String(),
	}).Info("Batch complete")
	return results
}

func (p *Processor) pageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.PageTimeout > 0 {
		return context.WithTimeout(ctx, p.opts.PageTimeout)
	}
	return context.WithCancel(ctx)
}
