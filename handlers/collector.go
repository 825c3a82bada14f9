package handlers

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// errWaitTimeout signals that a prompt expired before the target user
// responded.
var errWaitTimeout = errors.New("timed out waiting for response")

// The collector lets a workflow goroutine block on the next component
// interaction or channel message matching a filter. Pending waits are
// consulted by the central dispatcher before its custom-ID switch, so a
// wait steals matching events from regular handlers.

type componentWait struct {
	filter func(*discordgo.InteractionCreate) bool
	ch     chan *discordgo.InteractionCreate
}

type messageWait struct {
	filter func(*discordgo.Message) bool
	ch     chan *discordgo.Message
}

var (
	waitMu         sync.Mutex
	componentWaits = make(map[*componentWait]struct{})
	messageWaits   = make(map[*messageWait]struct{})
)

// awaitComponent blocks until a component interaction passes the filter
// or the timeout elapses.
func awaitComponent(filter func(*discordgo.InteractionCreate) bool, timeout time.Duration) (*discordgo.InteractionCreate, error) {
	w := &componentWait{filter: filter, ch: make(chan *discordgo.InteractionCreate, 1)}

	waitMu.Lock()
	componentWaits[w] = struct{}{}
	waitMu.Unlock()

	defer func() {
		waitMu.Lock()
		delete(componentWaits, w)
		waitMu.Unlock()
	}()

	select {
	case i := <-w.ch:
		return i, nil
	case <-time.After(timeout):
		return nil, errWaitTimeout
	}
}

// awaitMessage blocks until a channel message passes the filter or the
// timeout elapses.
func awaitMessage(filter func(*discordgo.Message) bool, timeout time.Duration) (*discordgo.Message, error) {
	w := &messageWait{filter: filter, ch: make(chan *discordgo.Message, 1)}

	waitMu.Lock()
	messageWaits[w] = struct{}{}
	waitMu.Unlock()

	defer func() {
		waitMu.Lock()
		delete(messageWaits, w)
		waitMu.Unlock()
	}()

	select {
	case m := <-w.ch:
		return m, nil
	case <-time.After(timeout):
		return nil, errWaitTimeout
	}
}

// dispatchComponentWait hands the interaction to the first matching
// wait. Reports whether it was consumed.
func dispatchComponentWait(i *discordgo.InteractionCreate) bool {
	waitMu.Lock()
	defer waitMu.Unlock()

	for w := range componentWaits {
		if w.filter(i) {
			delete(componentWaits, w)
			w.ch <- i
			return true
		}
	}
	return false
}

func dispatchMessageWait(m *discordgo.Message) bool {
	waitMu.Lock()
	defer waitMu.Unlock()

	for w := range messageWaits {
		if w.filter(m) {
			delete(messageWaits, w)
			w.ch <- m
			return true
		}
	}
	return false
}
