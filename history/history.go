package history

import (
	"errors"
	"sync"
	"time"

	"github.com/flywave/go3d/vec3"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	hemesh "github.com/flywave/go-hemesh"
)

var (
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrNoTransaction   = errors.New("no open transaction")
	ErrTransactionOpen = errors.New("a transaction is already open")
)

// Options configures a History.
type Options struct {
	// MaxEntries caps the undo stack; 0 means 1000.
	MaxEntries int `validate:"gte=0"`
	// Validate checks mesh invariants after every commit.
	Validate bool
}

// record is one executed command. Snapshot-backed commands keep the mesh
// state from before they ran; after is filled in when they are undone.
type record struct {
	cmd    Command
	before []byte
	after  []byte
}

func (r *record) undo(m *hemesh.Mesh) error {
	if t, ok := r.cmd.(*Translate); ok {
		translate(m, t.Verts, vec3.T{-t.Delta[0], -t.Delta[1], -t.Delta[2]})
		return nil
	}
	after, err := m.Snapshot()
	if err != nil {
		return err
	}
	if err := m.RestoreSnapshot(r.before); err != nil {
		return err
	}
	r.after = after
	return nil
}

func (r *record) redo(m *hemesh.Mesh) error {
	if t, ok := r.cmd.(*Translate); ok {
		translate(m, t.Verts, t.Delta)
		return nil
	}
	return m.RestoreSnapshot(r.after)
}

// Transaction is a committed group of commands undone and redone as one.
type Transaction struct {
	ID        uuid.UUID
	Name      string
	Timestamp time.Time
	records   []*record
}

// Len is the number of commands in the transaction.
func (t *Transaction) Len() int { return len(t.records) }

// History runs commands against one mesh and keeps undo/redo stacks of
// committed transactions.
type History struct {
	mu   sync.Mutex
	mesh *hemesh.Mesh
	opts Options

	undoStack []*Transaction
	redoStack []*Transaction

	open *Transaction
	// acc holds the translate being accumulated in the open transaction.
	acc *Translate
}

func New(m *hemesh.Mesh, opts Options) (*History, error) {
	if err := hemesh.ValidateOptions(opts); err != nil {
		return nil, err
	}
	if opts.MaxEntries == 0 {
		opts.MaxEntries = 1000
	}
	return &History{mesh: m, opts: opts}, nil
}

func (h *History) log() logrus.FieldLogger {
	l := hemesh.Logger()
	if h.open != nil {
		l = l.WithFields(logrus.Fields{"txn": h.open.ID.String(), "name": h.open.Name})
	}
	return l
}

// Begin opens a transaction.
func (h *History) Begin(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.beginLocked(name)
}

func (h *History) beginLocked(name string) error {
	if h.open != nil {
		return ErrTransactionOpen
	}
	h.open = &Transaction{ID: uuid.New(), Name: name, Timestamp: time.Now()}
	h.log().Debug("history: begin")
	return nil
}

// Run executes cmd. Outside a transaction it is committed on its own. A
// failing command leaves the mesh as it was before the command.
func (h *History) Run(cmd Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open == nil {
		if err := h.beginLocked(cmd.Description()); err != nil {
			return err
		}
		if err := h.runLocked(cmd); err != nil {
			h.cancelLocked()
			return err
		}
		_, err := h.commitLocked()
		return err
	}
	return h.runLocked(cmd)
}

func (h *History) runLocked(cmd Command) error {
	if t, ok := cmd.(*Translate); ok {
		if err := apply(h.mesh, t); err != nil {
			return err
		}
		if h.acc != nil && sameVerts(h.acc.Verts, t.Verts) {
			h.acc.Delta.Add(&t.Delta)
			return nil
		}
		h.flushLocked()
		h.acc = &Translate{Verts: append([]hemesh.VID(nil), t.Verts...), Delta: t.Delta}
		return nil
	}

	h.flushLocked()
	before, err := h.mesh.Snapshot()
	if err != nil {
		return pkgerrors.Wrap(err, "snapshot")
	}
	if err := apply(h.mesh, cmd); err != nil {
		if rerr := h.mesh.RestoreSnapshot(before); rerr != nil {
			h.log().WithError(rerr).Error("history: restore after failed command")
		}
		return pkgerrors.Wrap(err, cmd.Description())
	}
	h.open.records = append(h.open.records, &record{cmd: cmd, before: before})
	h.log().WithField("command", cmd.Description()).Debug("history: run")
	return nil
}

func (h *History) flushLocked() {
	if h.acc != nil {
		h.open.records = append(h.open.records, &record{cmd: h.acc})
		h.acc = nil
	}
}

// Commit closes the open transaction and pushes it on the undo stack. With
// Options.Validate set, an invalid mesh rolls the transaction back and the
// violation is returned.
func (h *History) Commit() (uuid.UUID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.commitLocked()
}

func (h *History) commitLocked() (uuid.UUID, error) {
	if h.open == nil {
		return uuid.Nil, ErrNoTransaction
	}
	h.flushLocked()
	if h.opts.Validate {
		if err := h.mesh.Validate(); err != nil {
			h.log().WithError(err).Error("history: commit left an invalid mesh")
			h.cancelLocked()
			return uuid.Nil, pkgerrors.Wrap(err, "commit")
		}
	}
	txn := h.open
	h.open = nil
	if len(txn.records) == 0 {
		return txn.ID, nil
	}
	h.undoStack = append(h.undoStack, txn)
	h.redoStack = nil
	if excess := len(h.undoStack) - h.opts.MaxEntries; excess > 0 {
		h.undoStack = h.undoStack[excess:]
	}
	hemesh.Logger().WithFields(logrus.Fields{
		"txn":      txn.ID.String(),
		"name":     txn.Name,
		"commands": len(txn.records),
	}).Debug("history: commit")
	return txn.ID, nil
}

// Cancel undoes the open transaction's commands in reverse and drops it.
func (h *History) Cancel() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open == nil {
		return ErrNoTransaction
	}
	return h.cancelLocked()
}

func (h *History) cancelLocked() error {
	h.flushLocked()
	txn := h.open
	h.open = nil
	return undoRecords(h.mesh, txn.records)
}

func undoRecords(m *hemesh.Mesh, rs []*record) error {
	for i := len(rs) - 1; i >= 0; i-- {
		if err := rs[i].undo(m); err != nil {
			return err
		}
	}
	return nil
}

// Undo takes back the last committed transaction.
func (h *History) Undo() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open != nil {
		return ErrTransactionOpen
	}
	if len(h.undoStack) == 0 {
		return ErrNothingToUndo
	}
	txn := h.undoStack[len(h.undoStack)-1]
	if err := undoRecords(h.mesh, txn.records); err != nil {
		return err
	}
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, txn)
	return nil
}

// Redo replays the last undone transaction.
func (h *History) Redo() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open != nil {
		return ErrTransactionOpen
	}
	if len(h.redoStack) == 0 {
		return ErrNothingToRedo
	}
	txn := h.redoStack[len(h.redoStack)-1]
	for _, r := range txn.records {
		if err := r.redo(h.mesh); err != nil {
			return err
		}
	}
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, txn)
	return nil
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// InTransaction reports whether Begin was called without Commit or Cancel.
func (h *History) InTransaction() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open != nil
}

// PeekUndo returns the transaction Undo would take back.
func (h *History) PeekUndo() (*Transaction, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undoStack) == 0 {
		return nil, false
	}
	return h.undoStack[len(h.undoStack)-1], true
}
