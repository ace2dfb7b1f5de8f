// Package loading streams submission progress to the roadmap loading view.
package loading

import (
	"context"
	"time"

	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

// Frame types sent to the client.
const (
	FrameProgress = "progress"
	FrameReady    = "ready"
	FrameFailed   = "failed"
	FrameIdle     = "idle"
	FramePong     = "pong"
)

// ReadyRedirect is the view the client opens once the report is available.
const ReadyRedirect = "/roadmap"

// maxPendingPercent keeps the bar short of full until the report exists.
const maxPendingPercent = 99

// DefaultPollEvery is how many ticks pass between session reloads.
const DefaultPollEvery = 10

// Frame is one message on the loading stream.
type Frame struct {
	Type     string `json:"type"`
	Percent  int    `json:"percent,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Source loads the current state of a wizard session.
type Source interface {
	Get(ctx context.Context, userID, sessionID string) (*domain.WizardSession, error)
}

// Stream reports on one session until its submission settles or ctx is done.
type Stream struct {
	src       Source
	userID    string
	sessionID string
	tick      time.Duration
	pollEvery int
}

// NewStream creates a stream for the given session. tick is the interval between
// progress frames.
func NewStream(src Source, userID, sessionID string, tick time.Duration) *Stream {
	return &Stream{
		src:       src,
		userID:    userID,
		sessionID: sessionID,
		tick:      tick,
		pollEvery: DefaultPollEvery,
	}
}

// state maps a session onto the frame that describes it. fresh says whether the
// session's last outcome belongs to a submission this stream has watched, so an
// error left by an earlier attempt is not reported again. A report counts only
// once the session has moved on to the roadmap. Progress frames carry no
// percentage here; the caller owns the counter.
func state(sess *domain.WizardSession, fresh bool) Frame {
	switch {
	case sess.Submitting:
		return Frame{Type: FrameProgress}
	case fresh && sess.LastError != "":
		return Frame{Type: FrameFailed, Error: sess.LastError}
	case sess.Report != nil && wizard.Step(sess.CurrentStep) == wizard.StepRoadmap:
		return Frame{Type: FrameReady, Percent: 100, Redirect: ReadyRedirect}
	default:
		return Frame{Type: FrameIdle}
	}
}

// Run sends frames through send. It returns nil after a ready or failed frame,
// ctx.Err() when ctx is cancelled and the first error from the source or send.
func (s *Stream) Run(ctx context.Context, send func(Frame) error) error {
	sess, err := s.src.Get(ctx, s.userID, s.sessionID)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	// Outcomes recorded under the submission id seen at open are stale unless
	// the stream watched that submission run.
	baseline := sess.LastSubmissionID
	watched := false

	percent := 0
	ticks := 0
	last := ""
	for {
		if sess.Submitting {
			watched = true
		}
		frame := state(sess, watched || sess.LastSubmissionID != baseline)
		switch frame.Type {
		case FrameReady, FrameFailed:
			return send(frame)
		case FrameIdle:
			if last != FrameIdle {
				if err := send(frame); err != nil {
					return err
				}
			}
		case FrameProgress:
			if percent < maxPendingPercent {
				percent++
			}
			frame.Percent = percent
			if err := send(frame); err != nil {
				return err
			}
		}
		last = frame.Type

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		ticks++
		if ticks%s.pollEvery == 0 {
			sess, err = s.src.Get(ctx, s.userID, s.sessionID)
			if err != nil {
				return err
			}
		}
	}
}
