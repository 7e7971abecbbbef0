package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"taskboard/internal/form"
	"taskboard/internal/service"
)

// State is the authentication state.
type State int

const (
	Unauthenticated State = iota
	Loading
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Result is the outcome of Login or Register. Failures are data, never errors.
type Result struct {
	Success bool
	Message string
	Errors  []service.FieldError
}

// Holder tracks the authentication state on top of a Store.
type Holder struct {
	store *Store
	svc   service.Service

	mu    sync.Mutex
	state State
}

// NewHolder returns a holder in the Unauthenticated state.
func NewHolder(store *Store, svc service.Service) *Holder {
	return &Holder{store: store, svc: svc}
}

// State returns the current state.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Session returns the current session when authenticated.
func (h *Holder) Session() (service.Session, bool) {
	if h.State() != Authenticated {
		return service.Session{}, false
	}
	return h.store.Session()
}

// HasToken reports whether a token is stored, valid or not.
func (h *Holder) HasToken() bool {
	_, err := h.store.Token()
	return err == nil
}

// Restore rehydrates the session from the stored token. Any failure,
// including a network error, clears the token.
func (h *Holder) Restore(ctx context.Context) State {
	tok, err := h.store.Token()
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			_ = h.store.Clear()
		}
		return h.setState(Unauthenticated)
	}
	if !tok.Valid() {
		_ = h.store.Clear()
		return h.setState(Unauthenticated)
	}

	h.setState(Loading)
	me, err := h.svc.CurrentUser(ctx)
	if err != nil || !me.Success || me.User == nil {
		_ = h.store.Clear()
		return h.setState(Unauthenticated)
	}

	sess := service.Session{Token: tok.AccessToken, UserID: me.User.ID, Name: me.User.Name, Email: me.User.Email}
	if err := h.store.SetSession(sess); err != nil {
		return h.setState(Unauthenticated)
	}
	return h.setState(Authenticated)
}

// Login validates the credentials, then signs in. No request is sent when
// validation fails.
func (h *Holder) Login(ctx context.Context, email, password string) Result {
	creds := service.Credentials{Email: email, Password: password}
	if errs := form.ValidateLogin(creds); !errs.Empty() {
		return Result{Message: errs.Message(), Errors: errs.List()}
	}
	resp, err := h.svc.Login(ctx, creds)
	return h.finish(resp, err)
}

// Register validates the registration, then creates the account and signs in.
func (h *Holder) Register(ctx context.Context, reg service.Registration) Result {
	if errs := form.ValidateRegistration(reg, true); !errs.Empty() {
		return Result{Message: errs.Message(), Errors: errs.List()}
	}
	resp, err := h.svc.Register(ctx, reg)
	return h.finish(resp, err)
}

func (h *Holder) finish(resp service.AuthResponse, err error) Result {
	if err != nil {
		return Result{Message: err.Error()}
	}
	if !resp.Success || resp.Token == "" || resp.User == nil {
		msg := resp.Message
		if msg == "" {
			msg = "authentication failed"
		}
		return Result{Message: msg, Errors: resp.Errors}
	}

	sess := service.Session{Token: resp.Token, UserID: resp.User.ID, Name: resp.User.Name, Email: resp.User.Email}
	if err := h.store.SetSession(sess); err != nil {
		return Result{Message: fmt.Sprintf("failed to save token: %v", err)}
	}
	h.setState(Authenticated)
	return Result{Success: true, Message: resp.Message}
}

// Logout clears the session and the persisted token.
func (h *Holder) Logout(ctx context.Context) error {
	_ = h.svc.Logout(ctx)
	return h.Invalidate()
}

// Invalidate forgets the session without telling the backend. It is run
// when the backend rejects the token.
func (h *Holder) Invalidate() error {
	h.setState(Unauthenticated)
	return h.store.Clear()
}

func (h *Holder) setState(s State) State {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
	return s
}
