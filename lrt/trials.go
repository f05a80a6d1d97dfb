package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/pittjames/golrt/pkg/trial"
)

// handleStartTrial starts a new trial. The session machine rejects the
// request if one is already running; that is surfaced to the user, not
// swallowed.
func handleStartTrial(state *appState) {
	tr, err := state.machine.StartTrial()
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}

	state.timeline.Clear()
	state.trialLabel.SetText(fmt.Sprintf("Current Trial: %d", tr.Number))
	state.timerLabel.SetText("Trial Time: 0.00s")
	refreshStatus(state)
}

// handleEndTrial closes the active trial.
func handleEndTrial(state *appState) {
	tr, err := state.machine.EndTrial()
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}

	// The trial is closed and immutable now; show its final raster.
	state.timeline.ShowTrial(tr)
	state.trialLabel.SetText(fmt.Sprintf("Last Trial: %d (Completed)", tr.Number))
	state.timerLabel.SetText(fmt.Sprintf("Trial Time: %.2fs", tr.Duration().Seconds()))
}

// handleExport writes every completed trial to a CSV file chosen by
// the user. An active trial is still filling up and is skipped.
func handleExport(state *appState) {
	var closed []*trial.Trial
	for _, t := range state.machine.AllTrials() {
		if !t.Active() {
			closed = append(closed, t)
		}
	}
	if len(closed) == 0 {
		dialog.ShowInformation("Export", "No completed trials to export yet.", state.window)
		return
	}

	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		if writer == nil {
			// User cancelled.
			return
		}
		defer writer.Close()

		if err := trial.WriteCSV(writer, closed, state.cfg.Names()); err != nil {
			dialog.ShowError(fmt.Errorf("failed to export trials: %w", err), state.window)
			return
		}
		state.statusLabel.SetText(fmt.Sprintf("Status: Exported %d trials", len(closed)))
	}, state.window)
}
