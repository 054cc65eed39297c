// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SlowRequestThreshold is the marker-log duration at which a request
// is logged even when debug logging is not enabled.
const SlowRequestThreshold = 3 * time.Second

// A Marker is one timed event in a request's lifecycle.
type Marker struct {
	// Name identifies the event, e.g. "add-to-queue" or "cache-hit".
	Name string
	// Time is the instant the event was recorded.
	Time time.Time
}

// A MarkerLog is the timed event log of a single request. Dispatchers
// on several goroutines append to it concurrently; it is dumped once,
// at request end of life.
type MarkerLog struct {
	mu       sync.Mutex
	markers  []Marker
	finished bool
}

// NewMarkerLog returns an empty marker log.
func NewMarkerLog() *MarkerLog {
	return &MarkerLog{}
}

// Add records an event with the given name. Adding to a finished log
// is a no-op.
func (l *MarkerLog) Add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished {
		return
	}
	l.markers = append(l.markers, Marker{Name: name, Time: time.Now()})
}

// Duration returns the time between the first and last recorded
// events.
func (l *MarkerLog) Duration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.durationLocked()
}

func (l *MarkerLog) durationLocked() time.Duration {
	if len(l.markers) == 0 {
		return 0
	}
	return l.markers[len(l.markers)-1].Time.Sub(l.markers[0].Time)
}

// Events returns a copy of the recorded events.
func (l *MarkerLog) Events() []Marker {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Marker, len(l.markers))
	copy(out, l.markers)
	return out
}

// Finish closes the log and dumps it through the given logger. The
// full event list is written at debug level; a request whose lifetime
// exceeded SlowRequestThreshold is summarized at info level
// regardless. Finish is idempotent.
func (l *MarkerLog) Finish(header string, logger *zap.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished {
		return
	}
	l.finished = true

	elapsed := l.durationLocked()
	if elapsed >= SlowRequestThreshold {
		logger.Info("slow request", zap.Duration("elapsed", elapsed), zap.String("request", header))
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) || len(l.markers) == 0 {
		return
	}

	logger.Debug("request finished", zap.Duration("elapsed", elapsed), zap.String("request", header))
	prev := l.markers[0].Time
	for _, m := range l.markers {
		logger.Debug(m.Name, zap.Duration("plus", m.Time.Sub(prev)), zap.String("request", header))
		prev = m.Time
	}
}
