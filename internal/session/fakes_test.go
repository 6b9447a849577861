package session

import (
	"context"
	"sync"

	"github.com/avelara/design-portal/internal/model"
)

// fakeStore is an in-memory Store with controllable failures and an
// optional blocking gate on CurrentUser for reentrancy tests.
type fakeStore struct {
	mu           sync.Mutex
	ident        *Identity
	currentErr   error
	currentCalls int
	signInErr    error
	signOutErr   error

	// When block is non-nil, CurrentUser signals entered and then waits
	// for block to close before returning.
	block   chan struct{}
	entered chan struct{}

	subs    map[int]func(string)
	nextSub int
}

func newFakeStore(ident *Identity) *fakeStore {
	return &fakeStore{ident: ident, subs: map[int]func(string){}}
}

func (s *fakeStore) SignIn(ctx context.Context, email, password string) (Info, error) {
	s.mu.Lock()
	err := s.signInErr
	s.mu.Unlock()
	if err != nil {
		return Info{}, err
	}
	return Info{AccessToken: "token"}, nil
}

func (s *fakeStore) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = nil
	return s.signOutErr
}

func (s *fakeStore) CurrentUser(ctx context.Context) (*Identity, error) {
	s.mu.Lock()
	s.currentCalls++
	block, entered := s.block, s.entered
	ident, err := s.ident, s.currentErr
	s.mu.Unlock()

	if block != nil {
		entered <- struct{}{}
		<-block
	}
	if err != nil {
		return nil, err
	}
	return ident, nil
}

func (s *fakeStore) CurrentSession(ctx context.Context) (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ident == nil {
		return nil, nil
	}
	return &Info{AccessToken: "token"}, nil
}

func (s *fakeStore) OnAuthChange(fn func(string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *fakeStore) emit(event string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(event)
	}
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCalls
}

// fakeProfileAPI records calls and answers from configured state.
type fakeProfileAPI struct {
	mu             sync.Mutex
	existing       *model.Profile
	getErr         error
	reconcileErr   error
	savedIsAdmin   bool
	getCalls       int
	reconcileCalls int
	lastCandidate  Candidate
}

func (f *fakeProfileAPI) GetProfile(ctx context.Context) (model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return model.Profile{}, f.getErr
	}
	if f.existing == nil {
		return model.Profile{}, ErrProfileNotFound
	}
	return *f.existing, nil
}

func (f *fakeProfileAPI) Reconcile(ctx context.Context, candidate Candidate) (model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconcileCalls++
	f.lastCandidate = candidate
	if f.reconcileErr != nil {
		return model.Profile{}, f.reconcileErr
	}
	saved := model.Profile{
		UserID:   7,
		Email:    "ada@example.com",
		FullName: candidate.FullName,
		Company:  candidate.Company,
		ClientID: candidate.ClientID,
		IsAdmin:  f.savedIsAdmin,
	}
	f.existing = &saved
	return saved, nil
}

func (f *fakeProfileAPI) calls() (gets, reconciles int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.reconcileCalls
}

func (f *fakeProfileAPI) candidate() Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCandidate
}
