// Package state holds the in-memory projection of documents, folders, audit
// logs and users for one session, and routes every mutation through the
// durable local write followed by a best-effort remote mirror.
//
// A Controller is created once per session and bootstrapped before use. All
// accessors return copies; callers never share memory with the controller.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"documind/internal/crypto"
	"documind/internal/localstore"
	"documind/internal/model"
	"documind/internal/remote"
	docsync "documind/internal/sync"
)

var (
	ErrNotReady       = errors.New("session is not ready")
	ErrNotFound       = errors.New("not found")
	ErrAuthentication = errors.New("invalid credentials or inactive account")
	ErrForbidden      = errors.New("operation requires an administrator")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotLoggedIn    = errors.New("no user is logged in")
	ErrInvalidInput   = errors.New("invalid input")
)

// SessionKey is the settings key holding the persisted session reference.
const SessionKey = "documind_session"

// Store is the durable side of the controller.
type Store interface {
	localstore.Backend
	Init(ctx context.Context) error
	Setting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Syncer reconciles with the remote side.
type Syncer interface {
	Fetch(ctx context.Context) docsync.Snapshot
	Apply(ctx context.Context, local []model.Document, snap docsync.Snapshot) (docsync.PullResult, error)
	PushCreate(ctx context.Context, doc model.Document, files []remote.File) error
	PushStatus(ctx context.Context, id string, patch model.StatusPatch)
	LastOutcome(op docsync.Op) (docsync.Outcome, bool)
}

type Connectivity interface {
	Online() bool
}

// Deps wires a Controller. Clock and IDs default to time.Now and uuid.
type Deps struct {
	Store     Store
	Engine    Syncer
	Monitor   Connectivity
	Passwords crypto.PasswordManager
	Logger    zerolog.Logger
	Clock     func() time.Time
	IDs       func() string
}

// Controller is the single owner of session state.
type Controller struct {
	store     Store
	engine    Syncer
	monitor   Connectivity
	passwords crypto.PasswordManager
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string

	// pullMu serializes pulls; mu guards the session and is never held
	// across a network call.
	pullMu  sync.Mutex
	mu      sync.Mutex
	ready   bool
	docs    []model.Document
	folders []model.Folder
	logs    []model.AuditLog
	users   []model.User
	current *model.User
}

func New(d Deps) *Controller {
	c := &Controller{
		store:     d.Store,
		engine:    d.Engine,
		monitor:   d.Monitor,
		passwords: d.Passwords,
		logger:    d.Logger,
		now:       d.Clock,
		newID:     d.IDs,
	}
	if c.passwords == nil {
		c.passwords = crypto.NewBcryptManager(0)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c
}

// Online reports the connectivity flag, false when no monitor is wired.
func (c *Controller) Online() bool {
	return c.monitor != nil && c.monitor.Online()
}

// Ready reports whether Bootstrap completed.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Bootstrap loads the session. It initializes the store, loads every
// collection, seeds default accounts and demo content on first run, restores
// a persisted session for an Active user, marks the controller ready and,
// when online, pulls once. A store failure leaves the controller not ready
// and is returned wrapped in localstore.ErrStorageUnavailable.
func (c *Controller) Bootstrap(ctx context.Context) error {
	c.pullMu.Lock()
	defer c.pullMu.Unlock()

	loaded, err := c.load(ctx)
	if err != nil || !loaded {
		return err
	}
	if c.Online() {
		_, err := c.pull(ctx)
		return err
	}
	return nil
}

// load reports false when the controller was already ready.
func (c *Controller) load(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return false, nil
	}
	if err := c.store.Init(ctx); err != nil {
		return false, storageErr(err)
	}

	docs, err := localstore.GetAll[model.Document](ctx, c.store, localstore.Documents)
	if err != nil {
		return false, storageErr(err)
	}
	folders, err := localstore.GetAll[model.Folder](ctx, c.store, localstore.Folders)
	if err != nil {
		return false, storageErr(err)
	}
	logs, err := localstore.GetAll[model.AuditLog](ctx, c.store, localstore.AuditLogs)
	if err != nil {
		return false, storageErr(err)
	}
	users, err := localstore.GetAll[model.User](ctx, c.store, localstore.Users)
	if err != nil {
		return false, storageErr(err)
	}

	if len(users) == 0 {
		users, err = c.seedUsers(ctx)
		if err != nil {
			return false, err
		}
	}
	if len(docs) == 0 && len(folders) == 0 {
		docs, folders, logs, err = c.seedDemo(ctx)
		if err != nil {
			return false, err
		}
	}
	sortDocuments(docs)
	sortFolders(folders)
	sortLogs(logs)

	c.docs, c.folders, c.logs, c.users = docs, folders, logs, users
	c.current = c.restoreSession(ctx)
	c.ready = true

	c.logger.Info().
		Int("documents", len(docs)).
		Int("folders", len(folders)).
		Int("users", len(users)).
		Bool("session_restored", c.current != nil).
		Msg("session bootstrapped")
	return true, nil
}

func storageErr(err error) error {
	if errors.Is(err, localstore.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", localstore.ErrStorageUnavailable, err)
}

func (c *Controller) restoreSession(ctx context.Context) *model.User {
	raw, ok, err := c.store.Setting(ctx, SessionKey)
	if err != nil {
		c.logger.Warn().Err(err).Msg("read persisted session failed")
		return nil
	}
	if !ok {
		return nil
	}
	id, err := decodeSession(raw)
	if err != nil {
		c.logger.Warn().Err(err).Msg("ignoring malformed persisted session")
		return nil
	}
	for _, u := range c.users {
		if u.ID == id && u.Active() {
			cur := u
			return &cur
		}
	}
	return nil
}

// Close drops the in-memory state. The store stays owned by the caller.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = false
	c.docs, c.folders, c.logs, c.users = nil, nil, nil, nil
	c.current = nil
}

// Resync pulls the remote list and merges it into the session. Reads and
// mutations proceed while the fetch is in flight; the merge is applied to
// the session as it stands when the fetch returns.
func (c *Controller) Resync(ctx context.Context) (docsync.Outcome, error) {
	c.pullMu.Lock()
	defer c.pullMu.Unlock()

	if !c.Ready() {
		return docsync.Outcome{}, ErrNotReady
	}
	return c.pull(ctx)
}

func (c *Controller) pull(ctx context.Context) (docsync.Outcome, error) {
	if c.engine == nil {
		return docsync.Outcome{Op: docsync.OpPull, Status: docsync.StatusSkipped, At: c.now()}, nil
	}
	snap := c.engine.Fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return docsync.Outcome{}, ErrNotReady
	}
	res, err := c.engine.Apply(ctx, c.docs, snap)
	if err != nil {
		return res.Outcome, err
	}
	c.docs = res.Documents
	return res.Outcome, nil
}

// SyncStatus returns the last recorded outcome of op.
func (c *Controller) SyncStatus(op docsync.Op) (docsync.Outcome, bool) {
	if c.engine == nil {
		return docsync.Outcome{}, false
	}
	return c.engine.LastOutcome(op)
}
