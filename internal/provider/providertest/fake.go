// Package providertest provides an in-memory Provider for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/ashureev/sportsdesk/internal/provider"
)

// Fake is a scripted provider.Provider. Zero value replies with empty text.
type Fake struct {
	mu sync.Mutex

	// Reply is returned by GenerateContent and chat sends when Err is nil.
	Reply provider.Response
	Err   error
	// Replies, when set, override Reply per prompt.
	Replies map[string]provider.Response
	// ChatErr fails CreateChat.
	ChatErr error

	Requests    []provider.Request
	ChatConfigs []provider.ChatConfig
	Sent        []string
}

var _ provider.Provider = (*Fake)(nil)

// GenerateContent implements provider.Provider.
func (f *Fake) GenerateContent(_ context.Context, req provider.Request) (*provider.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return nil, f.Err
	}
	if r, ok := f.Replies[req.Prompt]; ok {
		return &r, nil
	}
	r := f.Reply
	return &r, nil
}

// CreateChat implements provider.Provider.
func (f *Fake) CreateChat(_ context.Context, cfg provider.ChatConfig) (provider.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ChatErr != nil {
		return nil, f.ChatErr
	}
	f.ChatConfigs = append(f.ChatConfigs, cfg)
	return &fakeSession{f: f}, nil
}

// SetErr swaps the scripted error.
func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

type fakeSession struct {
	f *Fake
}

func (s *fakeSession) Send(_ context.Context, text string) (*provider.Response, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.Sent = append(s.f.Sent, text)
	if s.f.Err != nil {
		return nil, s.f.Err
	}
	r := s.f.Reply
	return &r, nil
}

// Factory returns a provider.Factory that hands out p for any non-empty key
// and records every key it was asked to build.
func Factory(p provider.Provider, built *[]string) provider.Factory {
	var mu sync.Mutex
	return func(_ context.Context, apiKey string) (provider.Provider, error) {
		mu.Lock()
		defer mu.Unlock()
		if built != nil {
			*built = append(*built, apiKey)
		}
		if apiKey == "" {
			return nil, errEmptyKey
		}
		return p, nil
	}
}

type constError string

func (e constError) Error() string { return string(e) }

const errEmptyKey = constError("fake: api key is required")
