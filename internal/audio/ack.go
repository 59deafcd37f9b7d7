package audio

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errAckTimeout = errors.New("ack timeout")

type outcome struct {
	ack Ack
	err error
}

type pending struct {
	id       string
	code     string
	clientID string
	// buffered, written at most once
	done chan outcome
}

// Acks tracks commands awaiting confirmation from their target client.
type Acks struct {
	mtx     sync.Mutex
	pending map[string]*pending
	seq     map[string]int64
}

func NewAcks() *Acks {
	return &Acks{
		pending: map[string]*pending{},
		seq:     map[string]int64{},
	}
}

// NextSeq returns the next sequence number for a session.
func (a *Acks) NextSeq(code string) int64 {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.seq[code]++
	return a.seq[code]
}

func (a *Acks) register(code, clientID, id string) *pending {
	p := &pending{id: id, code: code, clientID: clientID, done: make(chan outcome, 1)}
	a.mtx.Lock()
	a.pending[id] = p
	a.mtx.Unlock()
	return p
}

func (a *Acks) forget(id string) {
	a.mtx.Lock()
	delete(a.pending, id)
	a.mtx.Unlock()
}

// wait blocks until the command is resolved, rejected or timeout passes. A
// timeout leaves the command pending so a late ACK of the same id still counts.
func (a *Acks) wait(ctx context.Context, p *pending, timeout time.Duration) (Ack, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-p.done:
		return out.ack, out.err
	case <-timer.C:
		return Ack{}, errAckTimeout
	case <-ctx.Done():
		a.forget(p.id)
		return Ack{}, ctx.Err()
	}
}

// Resolve delivers an ACK from clientID. ACKs for ids that are no longer
// pending, or that come from another client or session, are ignored.
func (a *Acks) Resolve(code, clientID string, ack Ack) bool {
	a.mtx.Lock()
	p, ok := a.pending[ack.CommandID]
	if !ok || p.code != code || (clientID != "" && p.clientID != clientID) {
		a.mtx.Unlock()
		return false
	}
	delete(a.pending, ack.CommandID)
	a.mtx.Unlock()

	p.done <- outcome{ack: ack}
	return true
}

// Clear rejects every pending command of the session with ErrCleared and
// resets its sequence counter.
func (a *Acks) Clear(code string) int {
	return a.reject(code, "", ErrCleared, true)
}

// Fail rejects the pending commands addressed to clientID with err.
func (a *Acks) Fail(code, clientID string, err error) int {
	return a.reject(code, clientID, err, false)
}

func (a *Acks) reject(code, clientID string, err error, resetSeq bool) int {
	a.mtx.Lock()
	var rejected []*pending
	for id, p := range a.pending {
		if p.code != code || (clientID != "" && p.clientID != clientID) {
			continue
		}
		rejected = append(rejected, p)
		delete(a.pending, id)
	}
	if resetSeq {
		delete(a.seq, code)
	}
	a.mtx.Unlock()

	for _, p := range rejected {
		p.done <- outcome{err: err}
	}
	return len(rejected)
}

// Pending returns the number of commands awaiting an ACK for code.
func (a *Acks) Pending(code string) int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	n := 0
	for _, p := range a.pending {
		if p.code == code {
			n++
		}
	}
	return n
}
