package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tsawler/pdfedit/document"
	"github.com/tsawler/pdfedit/engine"
	"github.com/tsawler/pdfedit/logging"
	"github.com/tsawler/pdfedit/reader"
	"github.com/tsawler/pdfedit/source"
	"github.com/tsawler/pdfedit/writer"
)

// State is the coordinator state of a session.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateMutating
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateMutating:
		return "mutating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	State     State
	Version   uint64
	PageCount int
	PageIDs   []document.PageID
	Info      document.Info
	Err       error // most recent failure, cleared by the next success
	Document  *document.Document
}

type (
	loadFunc  func(*source.Buffer, ...reader.Option) (*document.Document, error)
	applyFunc func(*document.Document, engine.Operation) (*document.Document, error)
)

// Session coordinates loads, edits and exports of one document. It is
// safe for concurrent use.
type Session struct {
	id     uuid.UUID
	engine *engine.Engine
	logger *slog.Logger
	load   loadFunc
	apply  applyFunc

	mu       sync.Mutex
	state    State
	doc      *document.Document
	lastErr  error
	nextPage document.PageID
	subs     map[chan Snapshot]struct{}
	closed   bool
}

// New creates an empty session. A nil engine gets default options and a
// nil logger discards output.
func New(eng *engine.Engine, logger *slog.Logger) *Session {
	if eng == nil {
		eng = engine.New(engine.Options{})
	}
	if logger == nil {
		logger = logging.Discard()
	}

	id := uuid.New()
	return &Session{
		id:     id,
		engine: eng,
		logger: logger.With("session", id.String()),
		load:   reader.Load,
		apply:  eng.Apply,
		subs:   make(map[chan Snapshot]struct{}),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id.String()
}

// admit moves the session into a transient state if it is idle.
func (s *Session) admit(ctx context.Context, to State) (State, *document.Document, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, nil, ErrClosed
	}
	if s.state == StateLoading || s.state == StateMutating {
		return 0, nil, ErrBusy
	}
	if to == StateMutating && s.doc == nil {
		return 0, nil, ErrNoDocument
	}

	prev := s.state
	s.state = to
	s.notify()
	return prev, s.doc, nil
}

// settle leaves a transient state. A nil doc keeps the current snapshot.
func (s *Session) settle(state State, doc *document.Document, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = state
	if doc != nil {
		s.doc = doc
		if next := doc.NextPageID(); next > s.nextPage {
			s.nextPage = next
		}
	}
	s.lastErr = err
	s.notify()
}

// Load replaces the session's document with the PDF in buf. The session
// takes ownership of buf and closes it before returning, also when the
// load is rejected. On failure the session keeps its previous document,
// if any.
func (s *Session) Load(ctx context.Context, buf *source.Buffer) (*document.Document, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: %w", reader.ErrCorruptDocument, source.ErrEmpty)
	}
	defer buf.Close()

	prev, _, err := s.admit(ctx, StateLoading)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "load admitted", "bytes", buf.Len())

	doc, err := s.loadBuffer(buf)
	if err != nil {
		s.settle(prev, nil, err)
		s.logger.WarnContext(ctx, "load failed", "error", err)
		return nil, err
	}

	s.settle(StateReady, doc, nil)
	s.logger.InfoContext(ctx, "document loaded",
		"version", doc.Version(),
		"pages", doc.Pages().Count(),
		"pdf", doc.PDFVersion().String())
	return doc, nil
}

func (s *Session) loadBuffer(buf *source.Buffer) (*document.Document, error) {
	if limit := s.engine.Options().MaxSourceSize; limit > 0 && int64(buf.Len()) > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", source.ErrTooLarge, buf.Len(), limit)
	}

	s.mu.Lock()
	first := s.nextPage
	s.mu.Unlock()

	var opts []reader.Option
	if first > 0 {
		opts = append(opts, reader.WithFirstPageID(first))
	}
	doc, err := s.load(buf, opts...)
	if err != nil {
		return nil, err
	}
	if max := s.engine.Options().MaxPages; max > 0 && doc.Pages().Count() > max {
		return nil, fmt.Errorf("%w: %d pages exceeds the limit of %d", engine.ErrTooManyPages, doc.Pages().Count(), max)
	}
	return doc, nil
}

// Apply runs op against the current document. On failure the current
// document is unchanged.
func (s *Session) Apply(ctx context.Context, op engine.Operation) (*document.Document, error) {
	_, base, err := s.admit(ctx, StateMutating)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "edit admitted", "op", op, "version", base.Version())

	next, err := s.apply(base, op)
	if err != nil {
		s.settle(StateReady, nil, err)
		s.logger.WarnContext(ctx, "edit failed", "op", op, "version", base.Version(), "error", err)
		return nil, err
	}

	s.settle(StateReady, next, nil)
	s.logger.InfoContext(ctx, "edit applied",
		"op", op,
		"version", next.Version(),
		"pages", next.Pages().Count())
	return next, nil
}

// current returns the latest committed snapshot.
func (s *Session) current() (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.doc == nil {
		return nil, ErrNoDocument
	}
	return s.doc, nil
}

// Export serializes the latest committed snapshot. It does not wait for
// an edit in flight.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.current()
	if err != nil {
		return nil, err
	}

	out, err := writer.Serialize(doc)
	if err != nil {
		s.logger.ErrorContext(ctx, "export failed", "version", doc.Version(), "error", err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "document exported", "version", doc.Version(), "bytes", len(out))
	return out, nil
}

// ExportTo writes the latest committed snapshot to w.
func (s *Session) ExportTo(ctx context.Context, w io.Writer) (int64, error) {
	out, err := s.Export(ctx)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(out)
	return int64(n), err
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{State: s.state, Err: s.lastErr, Document: s.doc}
	if s.doc != nil {
		snap.Version = s.doc.Version()
		snap.PageCount = s.doc.Pages().Count()
		snap.PageIDs = s.doc.Pages().IDs()
		snap.Info = s.doc.Info()
	}
	return snap
}

// Subscribe returns a channel that receives a snapshot on every state
// change, starting with the current one. Only the latest undelivered
// snapshot is kept. The returned function cancels the subscription and
// closes the channel.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	ch <- s.snapshot()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

// notify publishes the current snapshot. Callers hold s.mu, which makes
// notify the only sender, so the send after draining cannot block.
func (s *Session) notify() {
	snap := s.snapshot()
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Reset discards the document and returns the session to Empty. Page ids
// handed out before the reset are not reused.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.state == StateLoading || s.state == StateMutating {
		return ErrBusy
	}
	s.state = StateEmpty
	s.doc = nil
	s.lastErr = nil
	s.notify()
	s.logger.Info("session reset")
	return nil
}

// Close ends the session and closes every subscription. A load or edit
// in flight completes but its result is discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.doc = nil
	s.state = StateEmpty
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	s.logger.Info("session closed")
	return nil
}
