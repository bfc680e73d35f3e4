package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coralises/guildflow/internal/platform"
)

// fakePlatform records outbound calls and lets tests fail individual
// operations.
type fakePlatform struct {
	mu sync.Mutex

	spaceSeq      int
	spaces        map[string]bool
	access        map[string][]string
	messages      map[string][]platform.Message
	directs       map[string][]platform.Message
	forms         map[string][]platform.Form
	granted       map[string][]string
	revoked       map[string][]string
	roles         map[string]map[string]bool
	history       map[string][]platform.ChannelMessage
	failCreate    bool
	failDelete    bool
	failDirect    bool
	failForm      bool
	failSend      map[string]bool
	failRoleCalls bool

	// Optional rendezvous points. When set, the call signals entered then
	// blocks until release is closed, letting tests overlap two callers.
	fetchEntered chan struct{}
	fetchRelease chan struct{}
	grantEntered chan struct{}
	grantRelease chan struct{}
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		spaces:   make(map[string]bool),
		access:   make(map[string][]string),
		messages: make(map[string][]platform.Message),
		directs:  make(map[string][]platform.Message),
		forms:    make(map[string][]platform.Form),
		granted:  make(map[string][]string),
		revoked:  make(map[string][]string),
		roles:    make(map[string]map[string]bool),
		history:  make(map[string][]platform.ChannelMessage),
		failSend: make(map[string]bool),
	}
}

func (f *fakePlatform) CreateSpace(_ context.Context, name, parentID string, members []platform.SpaceGrant) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return "", errors.New("create space failed")
	}
	f.spaceSeq++
	id := fmt.Sprintf("space-%d", f.spaceSeq)
	f.spaces[id] = true
	return id, nil
}

func (f *fakePlatform) DeleteSpace(_ context.Context, spaceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errors.New("delete space failed")
	}
	delete(f.spaces, spaceID)
	return nil
}

func (f *fakePlatform) SetSpaceAccess(_ context.Context, spaceID, userID string, allow bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if allow {
		f.access[spaceID] = append(f.access[spaceID], userID)
	}
	return nil
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID string, msg platform.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend[channelID] {
		return errors.New("send failed")
	}
	f.messages[channelID] = append(f.messages[channelID], msg)
	return nil
}

func (f *fakePlatform) SendDirect(_ context.Context, userID string, msg platform.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDirect {
		return "", errors.New("direct message failed")
	}
	f.directs[userID] = append(f.directs[userID], msg)
	return "dm-" + userID, nil
}

func (f *fakePlatform) OpenForm(_ context.Context, userID string, form platform.Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failForm {
		return errors.New("open form failed")
	}
	f.forms[userID] = append(f.forms[userID], form)
	return nil
}

func (f *fakePlatform) FetchMessages(_ context.Context, channelID string, limit int) ([]platform.ChannelMessage, error) {
	if f.fetchEntered != nil {
		f.fetchEntered <- struct{}{}
		<-f.fetchRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.history[channelID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]platform.ChannelMessage(nil), msgs...), nil
}

func (f *fakePlatform) GrantRoles(_ context.Context, userID string, roleIDs []string) error {
	if f.grantEntered != nil {
		f.grantEntered <- struct{}{}
		<-f.grantRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRoleCalls {
		return errors.New("role grant failed")
	}
	f.granted[userID] = append(f.granted[userID], roleIDs...)
	return nil
}

func (f *fakePlatform) RevokeRoles(_ context.Context, userID string, roleIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRoleCalls {
		return errors.New("role revoke failed")
	}
	f.revoked[userID] = append(f.revoked[userID], roleIDs...)
	return nil
}

func (f *fakePlatform) HasRole(_ context.Context, userID, roleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[userID][roleID], nil
}

func (f *fakePlatform) setRole(userID, roleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roles[userID] == nil {
		f.roles[userID] = make(map[string]bool)
	}
	f.roles[userID][roleID] = true
}

func (f *fakePlatform) sentTo(channelID string) []platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Message(nil), f.messages[channelID]...)
}

func (f *fakePlatform) directsTo(userID string) []platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Message(nil), f.directs[userID]...)
}

func (f *fakePlatform) formsFor(userID string) []platform.Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Form(nil), f.forms[userID]...)
}

func (f *fakePlatform) spaceExists(spaceID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spaces[spaceID]
}

func (f *fakePlatform) rolesGranted(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.granted[userID]...)
}

func (f *fakePlatform) rolesRevoked(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.revoked[userID]...)
}
