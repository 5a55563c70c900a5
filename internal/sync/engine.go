// Package sync reconciles the local store with the remote bridge API.
//
// Pull is remote-wins and non-destructive: remote documents replace local
// ones with the same id and new ones are added, but nothing local is ever
// removed. Pushes are best effort and happen only while online. Offline
// mutations are not queued; a document changed while offline reaches the
// remote side only through a later mutation of the same document.
package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"documind/internal/localstore"
	"documind/internal/model"
	"documind/internal/remote"
)

var (
	// ErrOffline is returned by pushes that must report they did not run.
	ErrOffline = errors.New("offline")
	// ErrRemoteWrite wraps a failed remote create. The local write stands.
	ErrRemoteWrite = errors.New("remote write failed")
)

// Remote is the part of the bridge API client the engine needs.
type Remote interface {
	FetchDocuments(ctx context.Context) ([]model.Document, error)
	UploadDocument(ctx context.Context, doc model.Document, files []remote.File) error
	PatchDocumentStatus(ctx context.Context, id string, patch model.StatusPatch) error
}

// Connectivity reports the current online flag.
type Connectivity interface {
	Online() bool
}

type Op string

const (
	OpPull       Op = "pull"
	OpPushCreate Op = "push-create"
	OpPushStatus Op = "push-status"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome describes the last run of one sync operation.
type Outcome struct {
	Op       Op        `json:"op"`
	Status   Status    `json:"status"`
	At       time.Time `json:"at"`
	Err      error     `json:"-"`
	Error    string    `json:"error,omitempty"`
	DocID    string    `json:"docId,omitempty"`
	Fetched  int       `json:"fetched,omitempty"`
	Inserted int       `json:"inserted,omitempty"`
	Replaced int       `json:"replaced,omitempty"`
	Rejected int       `json:"rejected,omitempty"`
}

// PullResult is the merged list plus the recorded outcome.
type PullResult struct {
	Documents []model.Document
	Outcome   Outcome
}

// Engine runs pulls and pushes against one store and one remote.
type Engine struct {
	store  localstore.Backend
	remote Remote
	conn   Connectivity
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time

	mu       stdsync.Mutex
	outcomes map[Op]Outcome
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now for outcome timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

func New(store localstore.Backend, r Remote, conn Connectivity, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		remote:   r,
		conn:     conn,
		logger:   zerolog.Nop(),
		tracer:   otel.Tracer("documind/internal/sync"),
		now:      time.Now,
		outcomes: make(map[Op]Outcome),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Online reports the connectivity flag the engine gates on.
func (e *Engine) Online() bool {
	return e.conn != nil && e.conn.Online()
}

// Snapshot is a fetched remote list that passed validation and waits to be
// merged. A snapshot from a skipped or failed fetch merges as a no-op.
type Snapshot struct {
	Documents []model.Document
	Fetched   int
	Rejected  int

	done *Outcome
}

// Pull fetches the remote list and merges it into local. Offline, or when the
// fetch fails, local is returned unchanged and no error is reported. Remote
// documents that fail validation are skipped. Every inserted or replaced
// document is saved before Pull returns; a store failure is returned.
func (e *Engine) Pull(ctx context.Context, local []model.Document) (PullResult, error) {
	return e.Apply(ctx, local, e.Fetch(ctx))
}

// Fetch is the network half of Pull. It touches neither the store nor any
// local list, so callers can run it without holding their own locks.
func (e *Engine) Fetch(ctx context.Context) Snapshot {
	ctx, span := e.tracer.Start(ctx, "sync.fetch")
	defer span.End()

	if !e.Online() {
		out := e.record(Outcome{Op: OpPull, Status: StatusSkipped})
		span.SetAttributes(attribute.String("sync.status", string(out.Status)))
		return Snapshot{done: &out}
	}

	fetched, err := e.remote.FetchDocuments(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("pull: remote fetch failed, keeping local documents")
		span.RecordError(err)
		out := e.record(Outcome{Op: OpPull, Status: StatusFailed, Err: err})
		return Snapshot{done: &out}
	}

	snap := Snapshot{
		Documents: make([]model.Document, 0, len(fetched)),
		Fetched:   len(fetched),
	}
	for _, d := range fetched {
		if err := d.Validate(); err != nil {
			snap.Rejected++
			e.logger.Warn().Err(err).Str("doc_id", d.ID).Msg("pull: skipping invalid remote document")
			continue
		}
		snap.Documents = append(snap.Documents, d)
	}
	span.SetAttributes(
		attribute.Int("sync.fetched", snap.Fetched),
		attribute.Int("sync.rejected", snap.Rejected),
	)
	return snap
}

// Apply is the local half of Pull: merge snap into local and save every
// inserted or replaced document.
func (e *Engine) Apply(ctx context.Context, local []model.Document, snap Snapshot) (PullResult, error) {
	if snap.done != nil {
		return PullResult{Documents: local, Outcome: *snap.done}, nil
	}

	ctx, span := e.tracer.Start(ctx, "sync.merge")
	defer span.End()

	merged := Merge(local, snap.Documents)
	for _, d := range merged.Changed {
		if err := localstore.Save(ctx, e.store, localstore.Documents, d); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save merged document")
			out := e.record(Outcome{Op: OpPull, Status: StatusFailed, Err: err, Fetched: snap.Fetched})
			return PullResult{Documents: local, Outcome: out}, fmt.Errorf("save pulled document %s: %w", d.ID, err)
		}
	}

	out := e.record(Outcome{
		Op:       OpPull,
		Status:   StatusOK,
		Fetched:  snap.Fetched,
		Inserted: merged.Inserted,
		Replaced: merged.Replaced,
		Rejected: snap.Rejected,
	})
	span.SetAttributes(
		attribute.Int("sync.inserted", out.Inserted),
		attribute.Int("sync.replaced", out.Replaced),
	)
	e.logger.Info().
		Int("fetched", out.Fetched).
		Int("inserted", out.Inserted).
		Int("replaced", out.Replaced).
		Int("rejected", out.Rejected).
		Msg("pull complete")

	return PullResult{Documents: merged.Documents, Outcome: out}, nil
}

// PushCreate mirrors a newly created document to the remote side. The caller
// has already persisted it locally and keeps it whatever happens here.
func (e *Engine) PushCreate(ctx context.Context, doc model.Document, files []remote.File) error {
	ctx, span := e.tracer.Start(ctx, "sync.push_create", trace.WithAttributes(attribute.String("doc.id", doc.ID)))
	defer span.End()

	if !e.Online() {
		e.record(Outcome{Op: OpPushCreate, Status: StatusSkipped, DocID: doc.ID})
		return ErrOffline
	}
	if err := e.remote.UploadDocument(ctx, doc, files); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload document")
		e.record(Outcome{Op: OpPushCreate, Status: StatusFailed, Err: err, DocID: doc.ID})
		return fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}
	e.record(Outcome{Op: OpPushCreate, Status: StatusOK, DocID: doc.ID})
	return nil
}

// PushStatus mirrors a star or trash change. Failures are logged and recorded
// but never returned; the local state stays authoritative for the session.
func (e *Engine) PushStatus(ctx context.Context, id string, patch model.StatusPatch) {
	ctx, span := e.tracer.Start(ctx, "sync.push_status", trace.WithAttributes(attribute.String("doc.id", id)))
	defer span.End()

	if !e.Online() {
		e.record(Outcome{Op: OpPushStatus, Status: StatusSkipped, DocID: id})
		return
	}
	if err := e.remote.PatchDocumentStatus(ctx, id, patch); err != nil {
		span.RecordError(err)
		e.logger.Warn().Err(err).Str("doc_id", id).Msg("push status failed")
		e.record(Outcome{Op: OpPushStatus, Status: StatusFailed, Err: err, DocID: id})
		return
	}
	e.record(Outcome{Op: OpPushStatus, Status: StatusOK, DocID: id})
}

// LastOutcome returns the most recent outcome recorded for op.
func (e *Engine) LastOutcome(op Op) (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out, ok := e.outcomes[op]
	return out, ok
}

func (e *Engine) record(out Outcome) Outcome {
	out.At = e.now()
	if out.Err != nil {
		out.Error = out.Err.Error()
	}
	e.mu.Lock()
	e.outcomes[out.Op] = out
	e.mu.Unlock()
	return out
}
