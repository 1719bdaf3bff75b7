package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripEngineTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "removes every engine tag",
			in:   []string{TagCurrent, TagNextUp, TagPending, TagAwaitingFeedback},
			want: []string{},
		},
		{
			name: "keeps free-form labels in order",
			in:   []string{"art-request", TagPending, "vip", TagCurrent, "fanart"},
			want: []string{"art-request", "vip", "fanart"},
		},
		{
			name: "keeps terminal markers",
			in:   []string{TagPending, TagFinished},
			want: []string{TagFinished},
		},
		{
			name: "empty input",
			in:   []string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripEngineTags(tt.in))
		})
	}
}

func TestEngineTag(t *testing.T) {
	ticket := Ticket{Tags: []string{"vip", TagNextUp}}
	tag, ok := ticket.EngineTag()
	assert.True(t, ok)
	assert.Equal(t, TagNextUp, tag)

	none := Ticket{Tags: []string{"vip", TagFinished}}
	_, ok = none.EngineTag()
	assert.False(t, ok)
}

func TestWorkflow(t *testing.T) {
	active := Ticket{Tags: []string{TagCurrent}}
	assert.Equal(t, WorkflowState{Kind: WorkflowActive, Tag: TagCurrent}, active.Workflow())

	// A stale engine tag next to a terminal marker reads as terminal.
	closed := Ticket{Tags: []string{TagPending, TagFinished}}
	assert.Equal(t, WorkflowState{Kind: WorkflowTerminal, Tag: TagFinished}, closed.Workflow())

	bare := Ticket{Tags: []string{"vip"}}
	assert.Equal(t, WorkflowState{}, bare.Workflow())
}

func TestCounterNextForLane(t *testing.T) {
	counter := Counter{NextPersonalNumber: 4, NextPriorityNumber: 9}
	assert.Equal(t, 9, counter.NextForLane(LanePriority))
	assert.Equal(t, 4, counter.NextForLane(LanePersonal))
}

func TestNewCounterStartsAtOne(t *testing.T) {
	counter := NewCounter("creator-1")
	assert.Equal(t, 1, counter.NextTicketNumber)
	assert.Equal(t, 1, counter.NextPersonalNumber)
	assert.Equal(t, 1, counter.NextPriorityNumber)
}

func TestIsEngineTag(t *testing.T) {
	assert.True(t, IsEngineTag(TagCurrent))
	assert.True(t, IsEngineTag(TagAwaitingFeedback))
	assert.False(t, IsEngineTag(TagFinished))
	assert.False(t, IsEngineTag("vip"))
}
