package api

import (
	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/surface"
)

const dismissedMessage = "Dialog was dismissed without selecting an action."

type DialogAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type DialogOptions struct {
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Actions []DialogAction `json:"actions"`
}

func (o DialogOptions) Validate() error {
	if o.Title == "" && o.Message == "" {
		return ErrEmptyTitleAndMessage
	}
	if len(o.Actions) == 0 {
		return ErrMissingAction
	}
	for _, a := range o.Actions {
		if a.ID == "" || a.Label == "" {
			return ErrInvalidAction
		}
	}
	return nil
}

// Dialog presents one alert at a time per capability tree.
type Dialog struct {
	node
	policy  DismissPolicy
	visible bool
}

func (d *Dialog) show(args script.Args) (any, error) {
	cb := args.Func(1)

	var opts DialogOptions
	err := args.Decode(0, &opts)
	if err != nil {
		err = ErrInvalidOptions
	} else {
		err = opts.Validate()
	}
	d.logger.Debug("dialog", "title", opts.Title, "actions", len(opts.Actions), "err", err)
	if err != nil {
		script.FireWithError(cb, err.Error())
		return nil, nil
	}

	d.dispatch("dialog", func(s *surface.Surface) {
		if d.visible {
			return
		}
		d.visible = true

		labels := make([]string, len(opts.Actions))
		for i, a := range opts.Actions {
			labels[i] = a.Label
		}
		alert := bridge.Alert{Title: opts.Title, Message: opts.Message, Actions: labels}

		done := script.NewPending(cb)
		s.Native().ShowAlert(s.ID(), alert, func(index int) {
			if done.Invoked() {
				d.logger.Debug("dialog already completed", "index", index)
				return
			}
			d.visible = false
			switch {
			case index >= 0 && index < len(opts.Actions):
				done.FireWithData(opts.Actions[index].ID)
			case d.policy == DismissError:
				done.FireWithError(dismissedMessage)
			default:
				done.Cancel()
			}
		})
	})
	return nil, nil
}

// Visible reports whether this tree's alert is on screen.
func (d *Dialog) Visible() bool {
	return d.visible
}
