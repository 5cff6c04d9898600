package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"github.com/jsphweid/stemviz/model"
	"github.com/jsphweid/stemviz/pianoroll"
)

// Viewer feeds visualization batches to the renderer one at a time. Batches
// arrive from any goroutine through Submit, rendering only happens inside Run.
type Viewer struct {
	renderer *pianoroll.Renderer
	surfaces pianoroll.SurfaceProvider
	log      *zap.Logger

	events     chan model.VisualizationBatch
	done       chan struct{}
	stopOnce   sync.Once
	debounced  func(func())
	onRendered func(model.VisualizationBatch, error)

	mu    sync.Mutex
	jobID string
}

type Option func(*Viewer)

// WithDebounce coalesces batches submitted within d, only the last renders.
func WithDebounce(d time.Duration) Option {
	return func(v *Viewer) {
		v.debounced = debounce.New(d)
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(v *Viewer) {
		v.log = l
	}
}

// OnRendered is called from Run after every batch with the render error,
// if any.
func OnRendered(fn func(model.VisualizationBatch, error)) Option {
	return func(v *Viewer) {
		v.onRendered = fn
	}
}

func New(r *pianoroll.Renderer, surfaces pianoroll.SurfaceProvider, opts ...Option) *Viewer {
	v := &Viewer{
		renderer: r,
		surfaces: surfaces,
		log:      zap.NewNop(),
		events:   make(chan model.VisualizationBatch, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Submit queues a batch. It blocks until the batch is queued, ctx is done or
// Run has stopped.
func (v *Viewer) Submit(ctx context.Context, batch model.VisualizationBatch) error {
	if v.debounced != nil {
		v.debounced(func() {
			v.send(context.Background(), batch)
		})
		return nil
	}
	return v.send(ctx, batch)
}

func (v *Viewer) send(ctx context.Context, batch model.VisualizationBatch) error {
	select {
	case <-v.done:
		return context.Canceled
	default:
	}
	select {
	case v.events <- batch:
		return nil
	case <-v.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply records the job of a conversion response and queues its batch.
// Missing visualization data is an empty batch.
func (v *Viewer) Apply(ctx context.Context, res *model.ConvertResponse) error {
	v.mu.Lock()
	v.jobID = res.JobID
	v.mu.Unlock()

	batch := res.VisualizationData
	if batch == nil {
		batch = make(model.VisualizationBatch)
	}
	return v.Submit(ctx, batch)
}

// JobID is the job of the last applied conversion.
func (v *Viewer) JobID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.jobID
}

// Run renders queued batches until ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	defer v.stopOnce.Do(func() { close(v.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch := <-v.events:
			err := v.renderer.RenderVisualization(batch, v.surfaces)
			if err != nil {
				v.log.Warn("batch rendered with errors", zap.Error(err))
			}
			v.log.Debug("batch rendered", zap.Int("instruments", len(batch)))
			if v.onRendered != nil {
				v.onRendered(batch, err)
			}
		}
	}
}
