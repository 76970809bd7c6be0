package form

import (
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/backtest-console/internal/models"
	"github.com/yourusername/backtest-console/internal/preset"
)

// ErrUnknownPreset indicates a preset id that is neither in the registry nor CustomID
var ErrUnknownPreset = errors.New("unknown preset")

// Form is the editable state of a backtest request before submission.
//
// The selected preset id is kept as-is after manual edits, so the label
// and the parameters can diverge.
type Form struct {
	presets  *preset.Registry
	request  models.BacktestRequest
	presetID string
}

// New creates a form pre-filled from presetID, or from the service defaults
// when presetID is CustomID or unknown.
func New(presets *preset.Registry, presetID string, start, end time.Time) *Form {
	f := &Form{
		presets: presets,
		request: models.BacktestRequest{
			StartDate: start.Format(models.DateLayout),
			EndDate:   end.Format(models.DateLayout),
			Params:    models.DefaultBacktestParams(),
		},
		presetID: preset.CustomID,
	}
	if err := f.SelectPreset(presetID); err != nil {
		f.presetID = preset.CustomID
	}
	return f
}

// Request returns a copy of the current request
func (f *Form) Request() models.BacktestRequest {
	return f.request
}

// PresetID returns the selected preset id
func (f *Form) PresetID() string {
	return f.presetID
}

// Set replaces one field. Unknown paths panic; check IsKnownField for user input.
func (f *Form) Set(path string, raw interface{}) {
	f.request = UpdateField(f.request, path, raw)
}

// SelectPreset overwrites the whole params subtree with the preset bundle.
// CustomID only changes the selection.
func (f *Form) SelectPreset(id string) error {
	if id == preset.CustomID {
		f.presetID = id
		return nil
	}
	params, ok := f.presets.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}
	f.request.Params = params
	f.presetID = id
	return nil
}

// Submission splits the form into the wire request and the client-only preset id
func (f *Form) Submission() (models.BacktestRequest, string) {
	return f.request, f.presetID
}

// DateOrderWarning reports whether start_date is after end_date.
// Nothing enforces the order; callers may warn.
func (f *Form) DateOrderWarning() bool {
	start, err := time.Parse(models.DateLayout, f.request.StartDate)
	if err != nil {
		return false
	}
	end, err := time.Parse(models.DateLayout, f.request.EndDate)
	if err != nil {
		return false
	}
	return start.After(end)
}
