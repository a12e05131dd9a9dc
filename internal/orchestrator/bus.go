// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AddressKind discriminates a Message's destination.
type AddressKind int

const (
	AddressAgent AddressKind = iota
	AddressBroadcast
	AddressGroup
)

// Address is a Message's destination: one agent, every mailbox, or a
// named group of mailboxes.
type Address struct {
	Kind  AddressKind
	Name  string   // AddressAgent
	Names []string // AddressGroup
}

func ToAgent(name string) Address      { return Address{Kind: AddressAgent, Name: name} }
func ToBroadcast() Address             { return Address{Kind: AddressBroadcast} }
func ToGroup(names ...string) Address  { return Address{Kind: AddressGroup, Names: names} }

// MessageKind classifies a Message's intent.
type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageWarning
	MessageError
	MessageResult
	MessageRequest
	MessageResponse
	MessageCoordination
)

// Priority orders messages for callers that care about urgency; the
// bus itself does not reorder delivery by priority.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Message is one item sent through the Bus.
type Message struct {
	ID        string
	From      string
	To        Address
	Kind      MessageKind
	Priority  Priority
	Payload   any
	Timestamp time.Time
}

// Bus is a single broadcast channel plus a per-agent mailbox map.
// Deliveries to one mailbox are FIFO in send order; there is no
// ordering guarantee across mailboxes.
type Bus struct {
	mu         sync.Mutex
	mailboxes  map[string][]Message
	history    []Message
	historyCap int
}

// NewBus constructs a Bus retaining at most historyCap messages of
// global history (0 disables history retention).
func NewBus(historyCap int) *Bus {
	return &Bus{
		mailboxes:  make(map[string][]Message),
		historyCap: historyCap,
	}
}

// EnsureMailbox registers name's mailbox so Broadcast/Group sends reach
// it; spawning an agent calls this automatically.
func (b *Bus) EnsureMailbox(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.mailboxes[name]; !ok {
		b.mailboxes[name] = nil
	}
}

// Send delivers msg per its Address, assigning an id and timestamp if
// unset. Addressees with no registered mailbox are silently dropped.
func (b *Bus) Send(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch msg.To.Kind {
	case AddressAgent:
		b.deliverLocked(msg.To.Name, msg)
	case AddressBroadcast:
		for name := range b.mailboxes {
			b.deliverLocked(name, msg)
		}
	case AddressGroup:
		for _, name := range msg.To.Names {
			b.deliverLocked(name, msg)
		}
	}

	b.history = append(b.history, msg)
	if b.historyCap > 0 && len(b.history) > b.historyCap {
		b.history = b.history[len(b.history)-b.historyCap:]
	}

	return msg
}

func (b *Bus) deliverLocked(name string, msg Message) {
	if _, ok := b.mailboxes[name]; !ok {
		return
	}
	b.mailboxes[name] = append(b.mailboxes[name], msg)
}

// Inbox returns up to the last n messages delivered to name's mailbox
// (n <= 0 returns everything retained).
func (b *Bus) Inbox(name string, n int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	msgs := b.mailboxes[name]
	if n <= 0 || n >= len(msgs) {
		out := make([]Message, len(msgs))
		copy(out, msgs)
		return out
	}
	out := make([]Message, n)
	copy(out, msgs[len(msgs)-n:])
	return out
}

// History returns up to the last n globally sent messages.
func (b *Bus) History(n int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || n >= len(b.history) {
		out := make([]Message, len(b.history))
		copy(out, b.history)
		return out
	}
	out := make([]Message, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}
