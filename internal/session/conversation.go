// Package session holds the conversation log of one chat session and the
// turn controller that drives it.
package session

import (
	"sync"
	"time"

	"elsbot/internal/perception"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the transcript. Values are copies; the log itself
// is never edited.
type Message struct {
	Role    Role
	Content string
	Time    time.Time

	// Failed marks the assistant message appended when the backend call failed.
	Failed bool
}

// Conversation is an append-only message log that always starts with the
// assistant greeting.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

// Seed creates a conversation holding only the greeting.
func Seed(greeting string) *Conversation {
	c := &Conversation{now: time.Now}
	c.messages = append(c.messages, Message{
		Role:    RoleAssistant,
		Content: greeting,
		Time:    c.now(),
	})
	return c
}

// Append adds one message at the tail and returns it.
func (c *Conversation) Append(role Role, text string) Message {
	return c.append(Message{Role: role, Content: text})
}

func (c *Conversation) appendFailed(text string) Message {
	return c.append(Message{Role: RoleAssistant, Content: text, Failed: true})
}

func (c *Conversation) append(m Message) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	m.Time = c.now()
	c.messages = append(c.messages, m)
	return m
}

// Messages returns a copy of the log in order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages, greeting included.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages[len(c.messages)-1]
}

// history returns completed exchanges for resending, skipping the greeting
// and any exchange whose reply failed.
func (c *Conversation) history() []perception.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var turns []perception.Turn
	for i := 1; i+1 < len(c.messages); i += 2 {
		user, reply := c.messages[i], c.messages[i+1]
		if user.Role != RoleUser || reply.Role != RoleAssistant || reply.Failed {
			continue
		}
		turns = append(turns, perception.Turn{User: user.Content, Assistant: reply.Content})
	}
	return turns
}
