package domain

import (
	"math"
	"time"
)

type DeliveryStatus string

const (
	DeliveryStatusSuccess DeliveryStatus = "success"
	DeliveryStatusFailure DeliveryStatus = "failure"
)

type DeliveryStatusKind int

const (
	DeliveryStatusKindNeutral DeliveryStatusKind = iota
	DeliveryStatusKindSuccess
	DeliveryStatusKindFailure
)

func (s DeliveryStatus) Kind() DeliveryStatusKind {
	switch s {
	case DeliveryStatusSuccess:
		return DeliveryStatusKindSuccess
	case DeliveryStatusFailure:
		return DeliveryStatusKindFailure
	default:
		return DeliveryStatusKindNeutral
	}
}

type DeliveryLogEntry struct {
	To          string
	Subject     string
	Status      DeliveryStatus
	// TimestampSeconds is epoch seconds exactly as the server sent it.
	TimestampSeconds float64
	BodySnippet      string
	BodyHTML         *string
}

func (e DeliveryLogEntry) LocalTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	sec, frac := math.Modf(e.TimestampSeconds)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).In(loc)
}

func (e DeliveryLogEntry) DisplayBody() string {
	if e.BodyHTML != nil && *e.BodyHTML != "" {
		return *e.BodyHTML
	}
	return e.BodySnippet
}
