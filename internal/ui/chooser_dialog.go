package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/bledm/internal/transport"
)

const (
	chooserTitle        = "Bluetooth devices"
	chooserConfirmLabel = "Pair"
	chooserDismissLabel = "Cancel"
)

type chooserResult struct {
	candidate transport.Candidate
	ok        bool
}

// dialogChooser is a transport.Chooser that asks the user through a modal list.
type dialogChooser struct {
	hooks UIHooks
}

func newDialogChooser(hooks UIHooks) *dialogChooser {
	return &dialogChooser{hooks: hooks}
}

// Choose blocks until the dialog is confirmed or dismissed, or ctx ends.
// It must not be called on the UI goroutine.
func (c *dialogChooser) Choose(ctx context.Context, candidates []transport.Candidate) (transport.Candidate, error) {
	if len(candidates) == 0 {
		return transport.Candidate{}, transport.ErrNoDevicesFound
	}

	show := c.hooks.ShowChooserDialog
	if show == nil {
		show = showChooserDialog
	}
	runOnUI := c.hooks.RunOnUI
	if runOnUI == nil {
		runOnUI = fyne.Do
	}

	results := make(chan chooserResult, 1)
	closeCh := make(chan func(), 1)
	runOnUI(func() {
		var window fyne.Window
		if c.hooks.CurrentWindow != nil {
			window = c.hooks.CurrentWindow()
		}
		closeCh <- show(window, candidates, func(candidate transport.Candidate, ok bool) {
			select {
			case results <- chooserResult{candidate: candidate, ok: ok}:
			default:
			}
		})
	})

	select {
	case res := <-results:
		if !res.ok {
			return transport.Candidate{}, transport.ErrChooserCanceled
		}
		appLogger.Info("device chosen in dialog", "name", res.candidate.Name, "address", res.candidate.Address)
		return res.candidate, nil
	case <-ctx.Done():
		select {
		case hide := <-closeCh:
			if hide != nil {
				runOnUI(hide)
			}
		default:
		}
		return transport.Candidate{}, ctx.Err()
	}
}

// showChooserDialog shows candidates in a modal list and returns a func that
// hides it. Closing the dialog any way other than confirming reports ok=false.
func showChooserDialog(window fyne.Window, candidates []transport.Candidate, onDone func(transport.Candidate, bool)) func() {
	selected := 0

	list := widget.NewList(
		func() int {
			return len(candidates)
		},
		func() fyne.CanvasObject {
			title := widget.NewLabel(" ")
			title.Truncation = fyne.TextTruncateEllipsis
			details := widget.NewLabel(" ")
			details.Truncation = fyne.TextTruncateEllipsis
			return container.NewVBox(title, details)
		},
		func(id widget.ListItemID, object fyne.CanvasObject) {
			row, ok := object.(*fyne.Container)
			if !ok || len(row.Objects) < 2 {
				return
			}
			title, titleOK := row.Objects[0].(*widget.Label)
			details, detailsOK := row.Objects[1].(*widget.Label)
			if !titleOK || !detailsOK {
				return
			}
			candidate, ok := transport.CandidateAt(candidates, id)
			if !ok {
				title.SetText("")
				details.SetText("")
				return
			}
			title.SetText(candidate.Title())
			details.SetText(candidate.Details())
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		selected = id
	}
	list.Select(0)

	chooser := dialog.NewCustomConfirm(
		chooserTitle,
		chooserConfirmLabel,
		chooserDismissLabel,
		container.NewBorder(nil, nil, nil, nil, list),
		func(ok bool) {
			if !ok {
				onDone(transport.Candidate{}, false)
				return
			}
			candidate, found := transport.CandidateAt(candidates, selected)
			onDone(candidate, found)
		},
		window,
	)
	chooser.Resize(fyne.NewSize(480, 360))
	chooser.Show()

	return chooser.Hide
}
