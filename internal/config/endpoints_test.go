package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"https://srclight.example", "https://srclight.example"},
		{"https://srclight.example/", "https://srclight.example"},
		{"  https://srclight.example//  ", "https://srclight.example"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.in))
		})
	}
}

func TestFromEnvironment(t *testing.T) {
	t.Setenv(EnvURL, "https://srclight.corp.example/")
	assert.Equal(t, "https://srclight.corp.example", FromEnvironment().Current())

	t.Setenv(EnvURL, " ")
	assert.Equal(t, DefaultURL, FromEnvironment().Current())
}

func TestSetNotifiesWatchers(t *testing.T) {
	e := NewEndpoints("https://first.example")
	watch := e.Watch()

	e.Set("https://second.example/")
	select {
	case got := <-watch:
		assert.Equal(t, "https://second.example", got)
	case <-time.After(time.Second):
		t.Fatal("watcher never notified")
	}
	assert.Equal(t, "https://second.example", e.Current())
}

func TestSetSameURLIsNoOp(t *testing.T) {
	e := NewEndpoints("https://first.example")
	watch := e.Watch()

	e.Set("https://first.example/")
	select {
	case got := <-watch:
		t.Fatalf("unexpected notification: %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatcherKeepsLatestOnly(t *testing.T) {
	e := NewEndpoints("https://first.example")
	watch := e.Watch()

	e.Set("https://second.example")
	e.Set("https://third.example")

	assert.Equal(t, "https://third.example", <-watch)
}
