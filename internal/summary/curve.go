package summary

import (
	"bytes"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/yourusername/backtest-console/internal/models"
)

// CurveStats describes a run's equity curve
type CurveStats struct {
	Points      int
	Start       float64
	End         float64
	Low         float64
	High        float64
	MaxDrawdown float64 // fraction of the running peak
	Volatility  float64 // population standard deviation of step returns
}

// AnalyzeCurve computes CurveStats; an empty curve yields the zero value
func AnalyzeCurve(curve []models.EquityPoint) CurveStats {
	if len(curve) == 0 {
		return CurveStats{}
	}

	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.Equity
	}

	low, _ := stats.Min(values)
	high, _ := stats.Max(values)
	vol, err := stats.StandardDeviationPopulation(Returns(curve))
	if err != nil {
		vol = 0
	}

	return CurveStats{
		Points:      len(curve),
		Start:       values[0],
		End:         values[len(values)-1],
		Low:         low,
		High:        high,
		MaxDrawdown: maxDrawdown(values),
		Volatility:  vol,
	}
}

// Returns calculates step returns; a zero previous equity yields 0
func Returns(curve []models.EquityPoint) []float64 {
	if len(curve) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	return returns
}

// CurveCSV exports the curve as step,equity rows with a header
func CurveCSV(curve []models.EquityPoint) string {
	var buf bytes.Buffer
	buf.WriteString("step,equity\n")
	for _, p := range curve {
		buf.WriteString(strconv.Itoa(p.Step))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(p.Equity, 'f', 6, 64))
		buf.WriteString("\n")
	}
	return buf.String()
}

func maxDrawdown(values []float64) float64 {
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
