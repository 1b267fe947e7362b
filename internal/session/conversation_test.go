package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elsbot/internal/perception"
)

var ignoreTime = cmpopts.IgnoreFields(Message{}, "Time")

func TestSeed(t *testing.T) {
	c := Seed("Halo!")

	require.Equal(t, 1, c.Len())
	want := []Message{{Role: RoleAssistant, Content: "Halo!"}}
	if diff := cmp.Diff(want, c.Messages(), ignoreTime); diff != "" {
		t.Errorf("Seed() mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, c.Last().Time.IsZero())
}

func TestConversation_AppendOrder(t *testing.T) {
	c := Seed("greet")
	c.Append(RoleUser, "q1")
	c.Append(RoleAssistant, "a1")
	got := c.Append(RoleUser, "q2")

	assert.Equal(t, RoleUser, got.Role)
	assert.Equal(t, "q2", c.Last().Content)

	want := []Message{
		{Role: RoleAssistant, Content: "greet"},
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
	}
	if diff := cmp.Diff(want, c.Messages(), ignoreTime); diff != "" {
		t.Errorf("Messages() mismatch (-want +got):\n%s", diff)
	}
}

func TestConversation_MessagesIsCopy(t *testing.T) {
	c := Seed("greet")
	msgs := c.Messages()
	msgs[0].Content = "tampered"

	assert.Equal(t, "greet", c.Messages()[0].Content)
}

func TestConversation_History(t *testing.T) {
	c := Seed("greet")
	c.Append(RoleUser, "q1")
	c.Append(RoleAssistant, "a1")
	c.Append(RoleUser, "q2")
	c.appendFailed("error")
	c.Append(RoleUser, "q3")
	c.Append(RoleAssistant, "a3")

	want := []perception.Turn{
		{User: "q1", Assistant: "a1"},
		{User: "q3", Assistant: "a3"},
	}
	assert.Equal(t, want, c.history())
	assert.Empty(t, Seed("greet").history())
}
