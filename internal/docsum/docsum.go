// Package docsum implements the document summariser behind the report-upload
// screen. Summaries are canned: the service validates the upload, waits a
// fixed processing delay, and returns a fixed analysis text. Real document
// understanding is out of scope; the canned flow exercises the same upload,
// progress and cancellation paths a real backend would.
package docsum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pulseaid/pulseaid/internal/observe"
)

// ErrUnsupportedFormat is returned for uploads outside the accepted set.
var ErrUnsupportedFormat = errors.New("docsum: unsupported file format")

// defaultDelay matches the processing time the upload screen was built
// around.
const defaultDelay = 3 * time.Second

// acceptedExtensions mirrors the upload control's accept list.
var acceptedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".docx": true,
}

// cannedSummary is the fixed analysis returned for every accepted upload.
const cannedSummary = `**Patient Report Summary**

**Patient Information:** John Doe, 45 years old, Male

**Key Findings:**
• Blood pressure: 140/90 mmHg (elevated)
• Heart rate: 82 bpm (normal)
• Blood glucose: 180 mg/dL (high)
• Cholesterol: 245 mg/dL (borderline high)

**Diagnosis:** Hypertension with diabetes mellitus type 2

**Recommendations:**
• Start antihypertensive medication
• Begin diabetes management protocol
• Lifestyle modifications recommended
• Follow-up in 2 weeks

**Priority Level:** Medium - requires ongoing monitoring and treatment adjustments.`

// Option configures a Summariser.
type Option func(*Summariser)

// WithDelay overrides the fixed processing delay.
func WithDelay(d time.Duration) Option {
	return func(s *Summariser) { s.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Summariser) { s.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Summariser) { s.metrics = m }
}

// Summariser produces report summaries for uploaded documents.
type Summariser struct {
	delay   time.Duration
	log     *slog.Logger
	metrics *observe.Metrics
}

// New creates a Summariser with the standard 3 second processing delay.
func New(opts ...Option) *Summariser {
	s := &Summariser{
		delay: defaultDelay,
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Summarise validates the uploaded filename, simulates processing for the
// configured delay, and returns the summary text. Cancelling ctx aborts the
// wait.
func (s *Summariser) Summarise(ctx context.Context, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !acceptedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	start := time.Now()
	s.log.Debug("summarising document", slog.String("file", filename))

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if s.metrics != nil {
		s.metrics.SummariseDuration.Record(ctx, time.Since(start).Seconds())
	}
	return cannedSummary, nil
}

// Formats returns the accepted upload extensions without the leading dot,
// in presentation order.
func Formats() []string {
	return []string{"pdf", "jpg", "jpeg", "png", "docx"}
}
