package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/ledgerproc/internal/domain"
	"github.com/iho/ledgerproc/internal/infrastructure/metrics"
)

// DefaultQueueCapacity is the bound of the channel between decoder and processor.
const DefaultQueueCapacity = 100

// ErrWiringFault is returned when the processing loop cannot hand a result
// back to the decoder. It means the pipeline itself is broken.
var ErrWiringFault = errors.New("pipeline reply slot is unavailable")

// envelope carries one entry to the processing loop. reply has capacity 1
// and receives exactly one result.
type envelope struct {
	entry domain.Entry
	reply chan error
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	Decoded      int
	Applied      int
	Rejected     int
	DecodeErrors int
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	Engine        *Engine
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
	IDGen         IDGenerator
	QueueCapacity int
}

// Pipeline feeds decoded entries to the engine one at a time. The decoder
// does not send entry N+1 until it has received the outcome of entry N, so
// entries are applied strictly in input order.
type Pipeline struct {
	engine   *Engine
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	idGen    IDGenerator
	capacity int
}

// NewPipeline creates a new Pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Engine == nil {
		cfg.Engine = NewEngine()
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}

	return &Pipeline{
		engine:   cfg.Engine,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		idGen:    cfg.IDGen,
		capacity: cfg.QueueCapacity,
	}
}

// Run drains src into store. The store belongs to the processing loop until
// Run returns; callers must not touch it concurrently.
func (p *Pipeline) Run(ctx context.Context, src EntrySource, store AccountStore) (RunStats, error) {
	logger := p.logger
	if p.idGen != nil {
		logger = logger.With().Str("run_id", p.idGen.Generate()).Logger()
	}

	logger.Info().Int("queue_capacity", p.capacity).Msg("ingestion started")
	start := time.Now()

	var stats RunStats
	queue := make(chan envelope, p.capacity)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.decode(gctx, logger, src, queue, &stats)
	})
	g.Go(func() error {
		return p.process(store, queue)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("ingestion aborted")
		return stats, err
	}

	logger.Info().
		Int("decoded", stats.Decoded).
		Int("applied", stats.Applied).
		Int("rejected", stats.Rejected).
		Int("decode_errors", stats.DecodeErrors).
		Int("accounts", store.Len()).
		Dur("duration", time.Since(start)).
		Msg("ingestion finished")

	return stats, nil
}

// decode is the sole producer. It owns stats and closes queue when done.
func (p *Pipeline) decode(
	ctx context.Context,
	logger zerolog.Logger,
	src EntrySource,
	queue chan<- envelope,
	stats *RunStats,
) error {
	defer close(queue)

	seq := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var skip SkippableError
			if errors.As(err, &skip) && skip.Skippable() {
				stats.DecodeErrors++
				p.recordDecodeError(err)
				logger.Warn().Err(err).Str("reason", decodeReason(err)).Msg("skipping undecodable row")
				continue
			}
			return fmt.Errorf("read entries: %w", err)
		}

		seq++
		stats.Decoded++
		if p.metrics != nil {
			p.metrics.EntriesDecoded.Inc()
		}

		env := envelope{entry: entry, reply: make(chan error, 1)}

		select {
		case queue <- env:
		case <-ctx.Done():
			return ctx.Err()
		}

		var result error
		select {
		case result = <-env.reply:
		case <-ctx.Done():
			return ctx.Err()
		}

		if result != nil {
			stats.Rejected++
			p.recordRejected(entry, result)
			event := logger.Warn().
				Err(result).
				Str("kind", entry.Kind().String()).
				Uint16("client", uint16(entry.ClientID())).
				Uint32("tx", uint32(entry.TxID()))
			if amount, ok := domain.AmountOf(entry); ok {
				event = event.Float64("amount", amount)
			}
			event.Str("reason", domain.Reason(result)).
				Int("seq", seq).
				Msg("entry rejected")
			continue
		}

		stats.Applied++
		if p.metrics != nil {
			p.metrics.EntriesApplied.WithLabelValues(entry.Kind().String()).Inc()
		}
	}
}

// process is the sole consumer and the only code that touches store.
func (p *Pipeline) process(store AccountStore, queue <-chan envelope) error {
	for env := range queue {
		result := p.apply(store, env.entry)
		if err := deliver(env, result); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) apply(store AccountStore, entry domain.Entry) error {
	if p.metrics == nil {
		return p.engine.Apply(store, entry)
	}

	accounts := store.Len()
	wasLocked := false
	if acc, ok := store.Get(entry.ClientID()); ok {
		wasLocked = acc.Locked
	}

	start := time.Now()
	err := p.engine.Apply(store, entry)
	p.metrics.ApplyDuration.Observe(time.Since(start).Seconds())

	if store.Len() > accounts {
		p.metrics.AccountsCreated.Inc()
	}
	if acc, ok := store.Get(entry.ClientID()); ok && acc.Locked && !wasLocked {
		p.metrics.AccountsLocked.Inc()
	}

	return err
}

// deliver fills the reply slot without blocking. A slot that cannot take
// the result has lost its reader.
func deliver(env envelope, result error) error {
	select {
	case env.reply <- result:
		return nil
	default:
		return fmt.Errorf("%w: %s client %d tx %d",
			ErrWiringFault, env.entry.Kind(), env.entry.ClientID(), env.entry.TxID())
	}
}

func (p *Pipeline) recordDecodeError(err error) {
	if p.metrics != nil {
		p.metrics.DecodeErrors.WithLabelValues(decodeReason(err)).Inc()
	}
}

func (p *Pipeline) recordRejected(entry domain.Entry, err error) {
	if p.metrics != nil {
		p.metrics.EntriesRejected.WithLabelValues(entry.Kind().String(), domain.Reason(err)).Inc()
	}
}

func decodeReason(err error) string {
	if reason := domain.Reason(err); reason != domain.ReasonUnknown {
		return reason
	}
	return domain.ReasonDecodeError
}
