package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/homonym/internal/dictionary"
	"github.com/MrWong99/homonym/internal/observe"
	"github.com/MrWong99/homonym/internal/transcript/editdist"
	"github.com/MrWong99/homonym/internal/transcript/phonetic"
	"github.com/MrWong99/homonym/pkg/acdat"
	"github.com/MrWong99/homonym/pkg/reading"
)

const defaultMaxEditDistance = 3

// Option is a functional option for configuring a [Reviser].
type Option func(*Reviser)

// WithMaxEditDistance sets the exclusive edit-distance limit: a hit is
// applied only when its characters differ from the canonical term by fewer
// than n edits. Default: 3. Values below 1 are ignored.
func WithMaxEditDistance(n int) Option {
	return func(r *Reviser) {
		if n >= 1 {
			r.maxDistance = n
		}
	}
}

// WithWorkers bounds the number of texts [Reviser.CorrectAll] processes in
// parallel. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Reviser) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger for dictionary warnings and per-hit debug
// records. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(r *Reviser) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records revision latency and hit outcomes on m. When nil (the
// default), nothing is recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Reviser) {
		r.metrics = m
	}
}

// Reviser is the homophone correction pipeline. See the package
// documentation for the algorithm.
type Reviser struct {
	dict      *dictionary.Dictionary
	automaton *acdat.Automaton[string]
	norm      phonetic.Normalizer
	readings  reading.Provider

	maxDistance int
	workers     int
	log         *slog.Logger
	metrics     *observe.Metrics
}

// Ensure Reviser satisfies the Corrector interface at compile time.
var _ Corrector = (*Reviser)(nil)

// New compiles terms into a dictionary and automaton and returns a ready
// [Reviser]. fuzzy enables the fuzzy phonetic fold for both the dictionary
// and the scanned text.
func New(terms []dictionary.Term, fuzzy bool, readings reading.Provider, opts ...Option) (*Reviser, error) {
	if readings == nil {
		return nil, errors.New("transcript: reading provider is required")
	}
	r := &Reviser{
		norm:        phonetic.New(fuzzy),
		readings:    readings,
		maxDistance: defaultMaxEditDistance,
		workers:     runtime.GOMAXPROCS(0),
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}

	r.dict = dictionary.Compile(terms, r.norm, readings, dictionary.WithLogger(r.log))
	a, err := acdat.Build(r.dict.Entries())
	if err != nil {
		return nil, fmt.Errorf("transcript: build automaton: %w", err)
	}
	r.automaton = a

	if r.metrics != nil {
		r.metrics.RecordDictionary(context.Background(), r.dict.Len(), len(r.dict.Collisions()))
	}
	r.log.Debug("transcript: reviser ready",
		"terms", len(terms),
		"keys", r.dict.Len(),
		"collisions", len(r.dict.Collisions()),
		"slots", a.Size(),
		"fuzzy", fuzzy,
	)
	return r, nil
}

// Dictionary returns the compiled term dictionary.
func (r *Reviser) Dictionary() *dictionary.Dictionary { return r.dict }

// Revise returns text with homophone errors corrected.
func (r *Reviser) Revise(text string) string {
	return r.Correct(context.Background(), text).Corrected
}

// Correct runs the pipeline over text and reports every substitution.
func (r *Reviser) Correct(ctx context.Context, text string) *CorrectedText {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "transcript.Correct")
	defer span.End()

	res := &CorrectedText{Original: text, Corrections: []Correction{}}

	sentences := Segment(text, r.readings)
	res.Stats.Sentences = len(sentences)

	var sb strings.Builder
	sb.Grow(len(text))
	for _, s := range sentences {
		if !s.Phonetic || s.Len() < 2 {
			sb.WriteString(s.Text)
			continue
		}
		sb.WriteString(r.correctSentence(ctx, s, res))
	}
	res.Corrected = sb.String()

	span.SetAttributes(
		attribute.Int("transcript.sentences", res.Stats.Sentences),
		attribute.Int("transcript.hits", res.Stats.Hits),
		attribute.Int("transcript.applied", res.Stats.Applied),
	)
	if r.metrics != nil {
		r.metrics.RecordRevision(ctx, time.Since(start).Seconds(), res.Stats.Sentences)
		r.metrics.RecordHits(ctx, observe.OutcomeApplied, res.Stats.Applied)
		r.metrics.RecordHits(ctx, observe.OutcomeRejected, res.Stats.Rejected)
		r.metrics.RecordHits(ctx, observe.OutcomeUnmapped, res.Stats.Unmapped)
	}
	return res
}

// correctSentence applies every accepted hit to one phonetic run, in hit
// order, and appends the corrections to res.
func (r *Reviser) correctSentence(ctx context.Context, s Sentence, res *CorrectedText) string {
	phon, pm := Transliterate(s.runes, r.readings, r.norm)
	hits := r.automaton.ParseText(phon)
	res.Stats.Hits += len(hits)

	log := observe.LoggerWith(ctx, r.log)
	result := s.Text
	for _, h := range hits {
		from, to, ok := pm.MapRange(h.Begin, h.End)
		if !ok {
			res.Stats.Unmapped++
			continue
		}
		sub := string(s.runes[from:to])
		dist := editdist.Distance(sub, h.Value)
		if dist >= r.maxDistance {
			res.Stats.Rejected++
			log.Debug("transcript: hit rejected", "original", sub, "canonical", h.Value, "distance", dist)
			continue
		}
		if sub == h.Value || !strings.Contains(result, sub) {
			continue
		}
		result = strings.Replace(result, sub, h.Value, 1)
		res.Stats.Applied++
		res.Corrections = append(res.Corrections, Correction{
			Original:  sub,
			Corrected: h.Value,
			Distance:  dist,
			Begin:     s.Start + from,
			End:       s.Start + to,
			Method:    MethodHomophone,
		})
		log.Debug("transcript: hit applied", "original", sub, "canonical", h.Value, "distance", dist)
	}
	return result
}

// CorrectAll corrects texts with at most the configured number of workers
// and returns the results in input order.
func (r *Reviser) CorrectAll(ctx context.Context, texts []string) ([]*CorrectedText, error) {
	out := make([]*CorrectedText, len(texts))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)
	for i, text := range texts {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			out[i] = r.Correct(egCtx, text)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("transcript: correct batch: %w", err)
	}
	return out, nil
}
