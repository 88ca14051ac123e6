package model

import (
	"fmt"
	"strings"
)

// EventKind classifies progress events pushed by a worker.
type EventKind string

const (
	// EventPhase replaces the status text without touching progress.
	EventPhase EventKind = "phase"
	// EventDownloading reports transferred bytes.
	EventDownloading EventKind = "downloading"
	// EventFinished reports that the transfer ended and post-processing may follow.
	EventFinished EventKind = "finished"
	// EventSucceeded reports the produced artifact; terminal.
	EventSucceeded EventKind = "succeeded"
	// EventFailed reports a worker failure; terminal.
	EventFailed EventKind = "failed"
)

// maxTitleLength bounds the media title echoed into status text.
const maxTitleLength = 50

// ProgressEvent is one state transition pushed by a worker through a Reporter.
type ProgressEvent struct {
	Kind EventKind

	// Phase
	Status string

	// Downloading; BytesTotal <= 0 means the total is unknown.
	BytesDone   int64
	BytesTotal  int64
	PercentText string

	// Succeeded
	Path     string
	Filename string

	// Failed
	Message string
}

// Phase builds a status-only event.
func Phase(status string) ProgressEvent {
	return ProgressEvent{Kind: EventPhase, Status: status}
}

// DownloadingTitle builds the phase event announcing which title is being downloaded.
func DownloadingTitle(title string) ProgressEvent {
	title = strings.TrimSpace(title)
	if title == "" {
		return Phase(StatusDownloading)
	}
	if r := []rune(title); len(r) > maxTitleLength {
		title = string(r[:maxTitleLength])
	}
	return Phase(fmt.Sprintf("Downloading: %s...", title))
}

// Downloading builds a byte progress event. percentText is used when total is unknown.
func Downloading(done, total int64, percentText string) ProgressEvent {
	return ProgressEvent{
		Kind:        EventDownloading,
		BytesDone:   done,
		BytesTotal:  total,
		PercentText: strings.TrimSpace(percentText),
	}
}

// Finished builds the transfer-finished event.
func Finished() ProgressEvent {
	return ProgressEvent{Kind: EventFinished}
}

// Succeeded builds the terminal success event.
func Succeeded(path, filename string) ProgressEvent {
	return ProgressEvent{Kind: EventSucceeded, Path: path, Filename: filename}
}

// Failed builds the terminal failure event.
func Failed(message string) ProgressEvent {
	return ProgressEvent{Kind: EventFailed, Message: message}
}

// Terminal reports whether the event completes the job.
func (e ProgressEvent) Terminal() bool {
	return e.Kind == EventSucceeded || e.Kind == EventFailed
}

// DownloadProgress computes the progress and status text for a Downloading event.
// Known totals map to min(99, 100*done/total); unknown totals report 0 and carry the
// engine's percent text in the status.
func (e ProgressEvent) DownloadProgress() (float64, string) {
	if e.BytesTotal > 0 {
		pct := float64(e.BytesDone) / float64(e.BytesTotal) * 100
		pct = max(pct, 0)
		status := fmt.Sprintf("%s %.1f%%", StatusDownloading, min(pct, ProgressMax))
		return min(pct, ProgressCeiling), status
	}
	if e.PercentText != "" {
		return ProgressMin, StatusDownloading + " " + e.PercentText
	}
	return ProgressMin, StatusDownloading
}
