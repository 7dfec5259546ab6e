// Package bus is the in-process message bus connecting the firmware's
// services. Topics form a trie; subscriptions may use MQTT-style
// wildcards, publishes may be retained, and a request/reply pair is
// built on private reply topics.
package bus

import (
	"context"
	"errors"
	"sync"
)

var ErrSubscriptionClosed = errors.New("bus: subscription closed")

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// CanReply reports whether the sender asked for a reply.
func (m *Message) CanReply() bool { return len(m.ReplyTo) > 0 }

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie
// -----------------------------------------------------------------------------

type node struct {
	children map[any]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok any) *node {
	if n.children == nil {
		return nil
	}
	return n.children[tok]
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu       sync.Mutex
	root     *node
	qLen     int
	replySeq int
}

// NewBus creates a bus whose subscriptions buffer queueLen messages.
// When a subscriber's buffer is full the oldest message is dropped.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{
		root: &node{},
		qLen: queueLen,
	}
}

func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish delivers a message to every subscription whose pattern matches
// the message topic, then stores or clears the retained copy.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deliver(b.root, msg.Topic, msg)

	if msg.Retained {
		b.storeRetained(msg)
	}
}

// deliver walks the trie matching the concrete topic against stored
// subscription patterns, branching into wildcard children as it goes.
func (b *Bus) deliver(n *node, rest Topic, msg *Message) {
	if n == nil {
		return
	}
	// "#" matches the remainder, including an empty one.
	if all := n.child(WildcardAll); all != nil {
		for _, sub := range all.subs {
			push(sub, msg)
		}
	}
	if len(rest) == 0 {
		for _, sub := range n.subs {
			push(sub, msg)
		}
		return
	}
	tok := rest[0]
	b.deliver(n.child(tok), rest[1:], msg)
	if tok != WildcardOne && tok != WildcardAll {
		b.deliver(n.child(WildcardOne), rest[1:], msg)
	}
}

// push enqueues without blocking; a full queue loses its oldest entry.
// Publishers all hold the bus lock, so after the drain the send cannot
// block.
func push(sub *Subscription, msg *Message) {
	select {
	case sub.ch <- msg:
	default:
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- msg
	}
}

// storeRetained records the message at its concrete topic node. A nil
// payload clears the slot.
func (b *Bus) storeRetained(msg *Message) {
	n := b.root
	for _, tok := range msg.Topic {
		if n.children == nil {
			n.children = make(map[any]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	if msg.Payload == nil {
		n.retained = nil
	} else {
		n.retained = msg
	}
}

// addSubscription inserts the pattern into the trie and delivers every
// retained message it matches.
func (b *Bus) addSubscription(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range sub.topic {
		if n.children == nil {
			n.children = make(map[any]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	b.sendRetained(b.root, sub.topic, sub)
}

// sendRetained walks concrete trie paths matching the pattern and pushes
// any retained messages found along them.
func (b *Bus) sendRetained(n *node, pattern Topic, sub *Subscription) {
	if n == nil {
		return
	}
	if len(pattern) == 0 {
		if n.retained != nil {
			push(sub, n.retained)
		}
		return
	}
	switch pattern[0] {
	case WildcardAll:
		b.sendRetainedTree(n, sub)
	case WildcardOne:
		for key, child := range n.children {
			if key == WildcardOne || key == WildcardAll {
				continue
			}
			b.sendRetained(child, pattern[1:], sub)
		}
	default:
		b.sendRetained(n.child(pattern[0]), pattern[1:], sub)
	}
}

// sendRetainedTree pushes the retained message at n and at every
// descendant of n, skipping pattern branches.
func (b *Bus) sendRetainedTree(n *node, sub *Subscription) {
	if n.retained != nil {
		push(sub, n.retained)
	}
	for key, child := range n.children {
		if key == WildcardOne || key == WildcardAll {
			continue
		}
		b.sendRetainedTree(child, sub)
	}
}

// unsubscribe removes the subscription and prunes empty trie nodes.
func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, tok := range sub.topic {
		child := n.child(tok)
		if child == nil {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	for i := len(sub.topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := sub.topic[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

func (b *Bus) nextReplyTopic(id string) Topic {
	b.mu.Lock()
	b.replySeq++
	seq := b.replySeq
	b.mu.Unlock()
	return Topic{"reply", id, seq}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
}

// NewConnection creates a connection bound to this bus. The id names the
// connection in reply topics and logs.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a subscription owned by this connection. The topic
// may contain wildcards.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.bus.addSubscription(sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscription and closes its channel. No
// publisher can hold the subscription once it has left the trie, so the
// close is safe.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions owned by this connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub)
		close(sub.ch)
	}
}

// Request assigns the message a private ReplyTo topic, subscribes to it,
// and publishes the request. The caller owns the returned subscription
// and must unsubscribe when done.
func (c *Connection) Request(msg *Message) *Subscription {
	msg.ReplyTo = c.bus.nextReplyTopic(c.id)
	sub := c.Subscribe(msg.ReplyTo)
	c.bus.Publish(msg)
	return sub
}

// RequestWait publishes the request and blocks for the first reply or
// context cancellation.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	sub := c.Request(msg)
	defer c.Unsubscribe(sub)

	select {
	case reply, ok := <-sub.ch:
		if !ok {
			return nil, ErrSubscriptionClosed
		}
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reply publishes a response on the request's ReplyTo topic. Requests
// without a ReplyTo are ignored.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if !req.CanReply() {
		return
	}
	c.bus.Publish(&Message{Topic: req.ReplyTo, Payload: payload, Retained: retained})
}
