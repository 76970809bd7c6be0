package session

import "github.com/yourusername/backtest-console/internal/models"

// Overlay holds the client-attached labels of a run
type Overlay struct {
	StrategyName *string
	PresetID     *string
}

// OverlayOf extracts the overlay fields of run
func OverlayOf(run models.BacktestRun) Overlay {
	return Overlay{StrategyName: run.StrategyName, PresetID: run.PresetID}
}

// Merge returns server with the overlay fields filled from local where the
// server left them unset. Every other field comes from server.
func Merge(server models.BacktestRun, local Overlay) models.BacktestRun {
	if server.StrategyName == nil {
		server.StrategyName = local.StrategyName
	}
	if server.PresetID == nil {
		server.PresetID = local.PresetID
	}
	return server
}

// chooseRecord picks the detail record when it was fetched, else the create response
func chooseRecord(created, detail models.BacktestRun, detailErr error) models.BacktestRun {
	if detailErr != nil {
		return created
	}
	return detail
}

// keepDetail copies detail-only fields from prev into a shallow listed record
func keepDetail(listed, prev models.BacktestRun) (models.BacktestRun, bool) {
	kept := false
	if listed.EquityCurve == nil && prev.EquityCurve != nil {
		listed.EquityCurve = prev.EquityCurve
		kept = true
	}
	if len(listed.ParamsSnapshot) == 0 && len(prev.ParamsSnapshot) > 0 {
		listed.ParamsSnapshot = prev.ParamsSnapshot
		kept = true
	}
	if listed.TradesSummary == nil && prev.TradesSummary != nil {
		listed.TradesSummary = prev.TradesSummary
		kept = true
	}
	return listed, kept
}
