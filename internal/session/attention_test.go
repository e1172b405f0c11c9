package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttentionStartsFollowing(t *testing.T) {
	a := NewAttention()
	assert.Equal(t, Following, a.State())
	assert.Zero(t, a.Unread())
}

func TestAttentionScrollPastThreshold(t *testing.T) {
	a := NewAttention()

	a.ReportScroll(followThreshold + 1)
	assert.Equal(t, Browsing, a.State())

	// Exactly at the threshold still counts as following.
	a.ReportScroll(followThreshold)
	assert.Equal(t, Following, a.State())
}

func TestAttentionUnreadAccumulatesWhileBrowsing(t *testing.T) {
	a := NewAttention()

	a.OnNewMessage()
	assert.Zero(t, a.Unread())

	a.ReportScroll(250)
	a.OnNewMessage()
	a.OnNewMessage()
	assert.Equal(t, 2, a.Unread())
	assert.Equal(t, Browsing, a.State())
}

func TestAttentionScrollBackClearsUnread(t *testing.T) {
	a := NewAttention()
	a.ReportScroll(250)
	a.OnNewMessage()

	a.ReportScroll(10)
	assert.Equal(t, Following, a.State())
	assert.Zero(t, a.Unread())
}

func TestAttentionJumpToLatest(t *testing.T) {
	a := NewAttention()
	a.ReportScroll(250)
	a.OnNewMessage()

	a.JumpToLatest()
	assert.Equal(t, Following, a.State())
	assert.Zero(t, a.Unread())
}

func TestAttentionReset(t *testing.T) {
	a := NewAttention()
	a.ReportScroll(250)
	a.OnNewMessage()

	a.Reset()
	assert.Equal(t, Following, a.State())
	assert.Zero(t, a.Unread())
}
