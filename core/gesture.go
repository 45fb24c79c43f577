package core

import (
	"fmt"
	"time"
)

// Gesture is one classified facial gesture from the upstream classifier.
type Gesture int

const (
	// GestureBlink is a detected eye blink, contributing the symbol 'B'.
	GestureBlink Gesture = iota

	// GestureNonBlink is a neutral (no-blink) interval, contributing the symbol 'N'.
	GestureNonBlink

	// GestureReset is a reset gesture (e.g. a head shake) that discards
	// all accumulated progress.
	GestureReset
)

const (
	gestureNameBlink    = "blink"
	gestureNameNonBlink = "non_blink"
	gestureNameReset    = "reset"
)

// String returns the wire name of the gesture.
func (g Gesture) String() string {
	switch g {
	case GestureBlink:
		return gestureNameBlink
	case GestureNonBlink:
		return gestureNameNonBlink
	case GestureReset:
		return gestureNameReset
	default:
		return fmt.Sprintf("gesture(%d)", int(g))
	}
}

// Symbol returns the password symbol the gesture contributes. The second
// return value is false for gestures that contribute no symbol.
func (g Gesture) Symbol() (byte, bool) {
	switch g {
	case GestureBlink:
		return 'B', true
	case GestureNonBlink:
		return 'N', true
	default:
		return 0, false
	}
}

// ParseGesture parses a wire name into a Gesture. Anything outside the
// three recognized kinds is a contract violation by the producer and is
// rejected with ErrUnknownGesture.
func ParseGesture(name string) (Gesture, error) {
	switch name {
	case gestureNameBlink:
		return GestureBlink, nil
	case gestureNameNonBlink:
		return GestureNonBlink, nil
	case gestureNameReset:
		return GestureReset, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGesture, name)
	}
}

// GestureEvent is a single classified event in the input stream. Events
// carry no identity beyond their position in the stream; ObservedAt is
// diagnostic only.
type GestureEvent struct {
	Gesture    Gesture
	ObservedAt time.Time
}
