package stats

// Dataset indexes the three inputs of a triple collocation
type Dataset int

const (
	DatasetA Dataset = iota
	DatasetB
	DatasetC
)

// Datasets lists the collocation inputs in argument order
var Datasets = [3]Dataset{DatasetA, DatasetB, DatasetC}

// PairRecord holds the agreement statistics of one location.
// Fields are in export order.
type PairRecord struct {
	R      Value `json:"r"`
	Bias   Value `json:"bias"`
	RMSE   Value `json:"rmse"`
	UbRMSE Value `json:"ubrmse"`
	PValue Value `json:"p_value"`
	N      int   `json:"n"`
}

// PairColumns names the PairRecord fields in export order
var PairColumns = []string{"R", "Bias", "RMSE", "ubRMSE", "PValue", "N"}

// Correlation group positions inside TCARecord.Corr
const (
	CorrAB = iota
	CorrAC
	CorrBC
	PValueAB
	PValueAC
	PValueBC
)

// Covariance is the 3x3 sample covariance of one location, kept for
// diagnostics alongside the derived quantities.
type Covariance struct {
	VarA, VarB, VarC    float64
	CovAB, CovAC, CovBC float64
}

// TCARecord holds the triple collocation estimates of one location.
// Fields are in export order; Cov and NegativeErrVar are diagnostics only.
type TCARecord struct {
	ErrVar [3]Value `json:"err_var"`
	SNRdB  [3]Value `json:"snr_db"`
	FMSE   [3]Value `json:"fmse"`
	NObs   Count    `json:"n_obs"`
	// R_ab, R_ac, R_bc, p_ab, p_ac, p_bc
	Corr [6]Value `json:"corr"`

	Cov            Covariance `json:"-"`
	NegativeErrVar [3]bool    `json:"-"`
}

// Computed reports whether the location passed the sample gate
func (r TCARecord) Computed() bool {
	return r.NObs.IsDefined()
}

// TCAColumns names the TCARecord fields in export order for the given
// dataset labels.
func TCAColumns(labels [3]string) []string {
	cols := make([]string, 0, 16)
	for _, prefix := range []string{"ErrVar", "SNRdB", "fMSE"} {
		for _, l := range labels {
			cols = append(cols, prefix+"_"+l)
		}
	}
	cols = append(cols, "NObs")
	pairs := [3]string{
		labels[0] + labels[1],
		labels[0] + labels[2],
		labels[1] + labels[2],
	}
	if len(labels[0]) > 1 || len(labels[1]) > 1 || len(labels[2]) > 1 {
		pairs = [3]string{
			labels[0] + "_" + labels[1],
			labels[0] + "_" + labels[2],
			labels[1] + "_" + labels[2],
		}
	}
	for _, p := range pairs {
		cols = append(cols, "R_"+p)
	}
	for _, p := range pairs {
		cols = append(cols, "p_"+p)
	}
	return cols
}

// DefaultLabels names the collocation inputs when no labels are configured
var DefaultLabels = [3]string{"a", "b", "c"}
