// Package collector drives bounded, ordered question/answer exchanges with a
// single respondent over a private channel. A collection suspends between
// answers without blocking the process and resolves to exactly one of
// completed, cancelled or timed out.
package collector

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coralises/guildflow/pkg/util"
)

// Result is the terminal outcome of a collection.
type Result string

const (
	ResultCompleted Result = "completed"
	ResultCancelled Result = "cancelled"
	ResultTimedOut  Result = "timed_out"
)

// Outcome reports how a collection ended. Answers is populated only for
// ResultCompleted and matches the question list in length and order.
type Outcome struct {
	Result  Result
	Answers []string
}

// SendFunc delivers one prompt to the respondent's channel.
type SendFunc func(ctx context.Context, prompt string) error

type session struct {
	messages chan string
}

// Registry tracks active collections and enforces at most one per
// (respondent, channel) pair.
type Registry struct {
	mu            sync.Mutex
	active        map[string]*session
	byRespondent  map[string]int
	cancelKeyword string
	logger        *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(cancelKeyword string, logger *zap.Logger) *Registry {
	return &Registry{
		active:        make(map[string]*session),
		byRespondent:  make(map[string]int),
		cancelKeyword: cancelKeyword,
		logger:        logger,
	}
}

// ActiveForRespondent reports whether the respondent has any collection
// running, regardless of channel.
func (r *Registry) ActiveForRespondent(respondent string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byRespondent[respondent] > 0
}

// Deliver routes an inbound message to the matching collection. It reports
// whether a collection consumed the message.
func (r *Registry) Deliver(respondent, channel, content string) bool {
	r.mu.Lock()
	s, ok := r.active[sessionKey(respondent, channel)]
	r.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case s.messages <- content:
	default:
		// Respondent is far ahead of the collection loop; drop rather
		// than block the event route.
		r.logger.Warn("collector message dropped",
			zap.String("respondent", respondent),
			zap.String("channel", channel))
	}
	return true
}

// Collect sends prompts in order and gathers one answer per prompt. The
// timeout is measured from collection start, not from the last answer. On
// timeout or cancellation, answers gathered so far are discarded. Starting a
// second collection for the same (respondent, channel) fails with a conflict
// before any prompt is sent.
func (r *Registry) Collect(ctx context.Context, respondent, channel string, questions []string, timeout time.Duration, send SendFunc) (*Outcome, error) {
	if len(questions) == 0 {
		return &Outcome{Result: ResultCompleted}, nil
	}

	key := sessionKey(respondent, channel)
	s := &session{messages: make(chan string, 32)}

	r.mu.Lock()
	if _, exists := r.active[key]; exists {
		r.mu.Unlock()
		return nil, util.NewConflict("a collection is already active for this respondent and channel", map[string]any{
			"respondent": respondent,
			"channel":    channel,
		})
	}
	r.active[key] = s
	r.byRespondent[respondent]++
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.active, key)
		if r.byRespondent[respondent]--; r.byRespondent[respondent] <= 0 {
			delete(r.byRespondent, respondent)
		}
		r.mu.Unlock()
	}()

	if err := send(ctx, questions[0]); err != nil {
		return nil, util.NewRemoteUnavailable("send prompt", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	answers := make([]string, 0, len(questions))
	for {
		select {
		case content := <-s.messages:
			if strings.EqualFold(strings.TrimSpace(content), r.cancelKeyword) {
				return &Outcome{Result: ResultCancelled}, nil
			}
			answers = append(answers, content)
			if len(answers) == len(questions) {
				return &Outcome{Result: ResultCompleted, Answers: answers}, nil
			}
			if err := send(ctx, questions[len(answers)]); err != nil {
				return nil, util.NewRemoteUnavailable("send prompt", err)
			}
		case <-timer.C:
			return &Outcome{Result: ResultTimedOut}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func sessionKey(respondent, channel string) string {
	return respondent + "|" + channel
}
