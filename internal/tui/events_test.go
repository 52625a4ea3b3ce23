package tui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/voicetask/internal/capture"
	"github.com/fyrsmithlabs/voicetask/internal/throttle"
)

func TestMailbox_CollapsesTranscriptsKeepsTransitions(t *testing.T) {
	b := newMailbox()
	b.push(transitionMsg{State: capture.StateListening, Reason: capture.ReasonStarted})
	for i := 0; i < 1000; i++ {
		b.push(transcriptMsg(fmt.Sprintf("partial %d", i)))
	}
	b.push(transitionMsg{State: capture.StateIdle, Reason: capture.ReasonEnded, Transcript: "call John tomorrow"})

	require.Equal(t, 3, b.len())
	assert.Equal(t, capture.StateListening, b.next().(transitionMsg).State)
	assert.Equal(t, transcriptMsg("partial 999"), b.next())
	assert.Equal(t, capture.StateIdle, b.next().(transitionMsg).State)
	assert.Zero(t, b.len())
}

func TestModel_IdleTransitionSurvivesInterimFlood(t *testing.T) {
	sub := &fakeSubmitter{decision: throttle.Decision{Allowed: true}, resp: sampleResponse()}
	m := NewModel(sub, Options{})

	m.events.push(transitionMsg{State: capture.StateListening, Reason: capture.ReasonStarted})
	for i := 0; i < 500; i++ {
		m.events.push(transcriptMsg("call John tomorrow at"))
	}
	m.events.push(transitionMsg{State: capture.StateIdle, Reason: capture.ReasonEnded, Transcript: "Call John tomorrow at 2pm"})

	for m.events.len() > 0 {
		updated, _ := m.Update(m.events.next())
		m = updated.(Model)
	}
	assert.False(t, m.listening)
	assert.Equal(t, "Call John tomorrow at 2pm", m.input.Value())

	m, cmd := pressEnter(t, m)
	require.NotNil(t, cmd)
	assert.True(t, m.submitting)
}
