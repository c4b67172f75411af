package pgxcasbin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// UpdateType identifies the kind of policy change carried by a message.
type UpdateType string

const (
	// Update requests a full policy reload.
	Update UpdateType = "Update"
	// UpdateForAddPolicy adds a single policy rule.
	UpdateForAddPolicy UpdateType = "UpdateForAddPolicy"
	// UpdateForRemovePolicy removes a single policy rule.
	UpdateForRemovePolicy UpdateType = "UpdateForRemovePolicy"
	// UpdateForRemoveFilteredPolicy removes policies by filter.
	UpdateForRemoveFilteredPolicy UpdateType = "UpdateForRemoveFilteredPolicy"
	// UpdateForSavePolicy saves all policies.
	UpdateForSavePolicy UpdateType = "UpdateForSavePolicy"
	// UpdateForAddPolicies adds multiple policy rules.
	UpdateForAddPolicies UpdateType = "UpdateForAddPolicies"
	// UpdateForRemovePolicies removes multiple policy rules.
	UpdateForRemovePolicies UpdateType = "UpdateForRemovePolicies"
	// UpdateForUpdatePolicy updates a single policy rule.
	UpdateForUpdatePolicy UpdateType = "UpdateForUpdatePolicy"
	// UpdateForUpdatePolicies updates multiple policy rules.
	UpdateForUpdatePolicies UpdateType = "UpdateForUpdatePolicies"
)

const defaultChannel = "casbin_policy_updates"

// MSG is the payload exchanged over the notify channel.
type MSG struct {
	// Method is the update type.
	Method UpdateType `json:"method"`
	// ID identifies the sending watcher.
	ID string `json:"id"`
	// Sec is the Casbin section key.
	Sec string `json:"sec,omitempty"`
	// Ptype is the policy type.
	Ptype string `json:"ptype,omitempty"`
	// OldRules holds the rules being replaced.
	OldRules [][]string `json:"old_rules,omitempty"`
	// NewRules holds the rules being applied.
	NewRules [][]string `json:"new_rules,omitempty"`
	// FieldIndex is the start index for filtered updates.
	FieldIndex int `json:"field_index,omitempty"`
	// FieldValues holds the filter values.
	FieldValues []string `json:"field_values,omitempty"`
}

// OptionWatcher configures a Watcher.
type OptionWatcher struct {
	// Channel sets the Postgres listen channel.
	Channel string
	// Verbose enables payload logging.
	Verbose bool
	// LocalID identifies this watcher instance. Defaults to a random UUID.
	LocalID string
	// NotifySelf delivers self-originated messages to the callback too.
	NotifySelf bool
}

// Watcher propagates policy updates between enforcer instances over
// Postgres listen/notify.
type Watcher struct {
	// RWMutex guards the callback.
	sync.RWMutex

	opt      OptionWatcher
	pool     *pgxpool.Pool
	ownsPool bool
	callback func(string)
	cancel   func()
}

// NewWatcherWithPool creates a Watcher on an existing pgx pool. The caller
// keeps ownership of the pool; Close will not close it.
func NewWatcherWithPool(ctx context.Context, pool *pgxpool.Pool, opt OptionWatcher) (*Watcher, error) {
	return newWatcher(ctx, pool, opt, false)
}

func newWatcher(ctx context.Context, pool *pgxpool.Pool, opt OptionWatcher, ownsPool bool) (*Watcher, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, errors.Join(ErrPingPool, err)
	}

	if opt.Channel == "" {
		opt.Channel = defaultChannel
	}
	if opt.LocalID == "" {
		opt.LocalID = uuid.New().String()
	}

	listenCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		opt:      opt,
		pool:     pool,
		ownsPool: ownsPool,
		cancel:   cancel,
	}

	go w.run(listenCtx)

	return w, nil
}

// run keeps the listen loop alive, backing off on connection failures until
// the context is canceled.
func (w *Watcher) run(ctx context.Context) {
	backoff := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(200*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := w.listen(ctx); errors.Is(err, context.Canceled) {
			slog.Info("pgxcasbin watcher closed")
			return nil
		} else if err != nil {
			slog.Error("pgxcasbin listen failed", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.Error("pgxcasbin listener stopped with error", "error", err)
	}

	slog.Info("pgxcasbin listener exited")
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return errors.Join(ErrAcquireConn, err)
	}
	defer conn.Release()

	if _, err = conn.Exec(ctx, fmt.Sprintf("listen %s", w.opt.Channel)); err != nil {
		return fmt.Errorf("%w: %s", errors.Join(ErrListenChannel, err), w.opt.Channel)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if errors.Is(err, context.Canceled) {
			return err
		} else if err != nil {
			return errors.Join(ErrWaitNotification, err)
		}

		if w.opt.Verbose {
			slog.Info("pgxcasbin received message",
				"channel", w.opt.Channel, "local_id", w.opt.LocalID, "payload", notification.Payload)
		}

		var m MSG
		if err := json.Unmarshal([]byte(notification.Payload), &m); err != nil {
			slog.Error("pgxcasbin failed to unmarshal notification", "payload", notification.Payload, "error", err)
			continue
		}

		w.RLock()
		if m.ID != w.opt.LocalID || w.opt.NotifySelf {
			if w.callback != nil {
				w.callback(notification.Payload)
			} else {
				slog.Warn("pgxcasbin callback is not set, skipping update")
			}
		}
		w.RUnlock()
	}
}

// DefaultCallback returns a callback that applies update messages to the
// enforcer using its Self* methods so the change is not re-broadcast.
func DefaultCallback(e casbin.IEnforcer) func(string) {
	return func(payload string) {
		var m MSG
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			slog.Error("pgxcasbin unable to unmarshal payload", "payload", payload, "error", err)
			return
		}

		var applied bool
		var err error
		switch m.Method {
		case Update, UpdateForSavePolicy:
			err = e.LoadPolicy()
			applied = true
		case UpdateForAddPolicy:
			if len(m.NewRules) == 0 {
				slog.Warn("pgxcasbin missing new rules for add policy")
				return
			}
			applied, err = e.SelfAddPolicy(m.Sec, m.Ptype, m.NewRules[0])
		case UpdateForAddPolicies:
			applied, err = e.SelfAddPolicies(m.Sec, m.Ptype, m.NewRules)
		case UpdateForRemovePolicy:
			if len(m.NewRules) == 0 {
				slog.Warn("pgxcasbin missing new rules for remove policy")
				return
			}
			applied, err = e.SelfRemovePolicy(m.Sec, m.Ptype, m.NewRules[0])
		case UpdateForRemoveFilteredPolicy:
			applied, err = e.SelfRemoveFilteredPolicy(m.Sec, m.Ptype, m.FieldIndex, m.FieldValues...)
		case UpdateForRemovePolicies:
			applied, err = e.SelfRemovePolicies(m.Sec, m.Ptype, m.NewRules)
		case UpdateForUpdatePolicy:
			if len(m.OldRules) == 0 || len(m.NewRules) == 0 {
				slog.Warn("pgxcasbin missing old or new rules for update policy")
				return
			}
			applied, err = e.SelfUpdatePolicy(m.Sec, m.Ptype, m.OldRules[0], m.NewRules[0])
		case UpdateForUpdatePolicies:
			applied, err = e.SelfUpdatePolicies(m.Sec, m.Ptype, m.OldRules, m.NewRules)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownUpdateType, m.Method)
		}
		if err != nil {
			slog.Error("pgxcasbin failed to update policy", "error", err)
		}
		if !applied {
			slog.Warn("pgxcasbin policy update was not applied")
		}
	}
}

// SetUpdateCallback registers the handler invoked on update messages.
func (w *Watcher) SetUpdateCallback(callback func(string)) error {
	w.Lock()
	defer w.Unlock()
	w.callback = callback
	return nil
}

// GetChannel returns the configured channel name.
func (w *Watcher) GetChannel() string {
	return w.opt.Channel
}

// GetLocalID returns the watcher local identifier.
func (w *Watcher) GetLocalID() string {
	return w.opt.LocalID
}

// Update broadcasts a full policy reload request.
func (w *Watcher) Update() error {
	return w.notify(&MSG{Method: Update, ID: w.opt.LocalID})
}

// UpdateForAddPolicy broadcasts a single rule addition.
func (w *Watcher) UpdateForAddPolicy(sec, ptype string, params ...string) error {
	return w.notify(&MSG{
		Method:   UpdateForAddPolicy,
		ID:       w.opt.LocalID,
		Sec:      sec,
		Ptype:    ptype,
		NewRules: [][]string{params},
	})
}

// UpdateForRemovePolicy broadcasts a single rule removal.
func (w *Watcher) UpdateForRemovePolicy(sec, ptype string, params ...string) error {
	return w.notify(&MSG{
		Method:   UpdateForRemovePolicy,
		ID:       w.opt.LocalID,
		Sec:      sec,
		Ptype:    ptype,
		NewRules: [][]string{params},
	})
}

// UpdateForRemoveFilteredPolicy broadcasts a filtered removal.
func (w *Watcher) UpdateForRemoveFilteredPolicy(sec, ptype string, fieldIndex int, fieldValues ...string) error {
	return w.notify(&MSG{
		Method:      UpdateForRemoveFilteredPolicy,
		ID:          w.opt.LocalID,
		Sec:         sec,
		Ptype:       ptype,
		FieldIndex:  fieldIndex,
		FieldValues: fieldValues,
	})
}

// UpdateForSavePolicy broadcasts a full policy reload request.
func (w *Watcher) UpdateForSavePolicy(model model.Model) error {
	return w.notify(&MSG{Method: UpdateForSavePolicy, ID: w.opt.LocalID})
}

// UpdateForAddPolicies broadcasts a multi-rule addition.
func (w *Watcher) UpdateForAddPolicies(sec string, ptype string, rules ...[]string) error {
	return w.notify(&MSG{
		Method:   UpdateForAddPolicies,
		ID:       w.opt.LocalID,
		Sec:      sec,
		Ptype:    ptype,
		NewRules: rules,
	})
}

// UpdateForRemovePolicies broadcasts a multi-rule removal.
func (w *Watcher) UpdateForRemovePolicies(sec string, ptype string, rules ...[]string) error {
	return w.notify(&MSG{
		Method:   UpdateForRemovePolicies,
		ID:       w.opt.LocalID,
		Sec:      sec,
		Ptype:    ptype,
		NewRules: rules,
	})
}

// UpdateForUpdatePolicy broadcasts a single rule update.
func (w *Watcher) UpdateForUpdatePolicy(sec string, ptype string, oldRule, newRule []string) error {
	return w.notify(&MSG{
		Method:   UpdateForUpdatePolicy,
		ID:       w.opt.LocalID,
		Sec:      sec,
		Ptype:    ptype,
		OldRules: [][]string{oldRule},
		NewRules: [][]string{newRule},
	})
}

// UpdateForUpdatePolicies broadcasts a multi-rule update.
func (w *Watcher) UpdateForUpdatePolicies(sec string, ptype string, oldRules, newRules [][]string) error {
	return w.notify(&MSG{
		Method:   UpdateForUpdatePolicies,
		ID:       w.opt.LocalID,
		Sec:      sec,
		Ptype:    ptype,
		OldRules: oldRules,
		NewRules: newRules,
	})
}

// Close stops the listener. The pool is closed only when the watcher
// created it.
func (w *Watcher) Close() {
	w.cancel()
	if w.ownsPool && w.pool != nil {
		w.pool.Close()
	}
}

func (w *Watcher) notify(m *MSG) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %+v", errors.Join(ErrMarshalMessage, err), m)
	}

	cmd := fmt.Sprintf("select pg_notify('%s', $1)", w.opt.Channel)
	if _, err := w.pool.Exec(context.Background(), cmd, string(b)); err != nil {
		return fmt.Errorf("%w: %s", errors.Join(ErrNotifyMessage, err), string(b))
	}

	if w.opt.Verbose {
		slog.Info("pgxcasbin send message", "channel", w.opt.Channel, "payload", string(b))
	}

	return nil
}
