package metricskey

import "github.com/effective-security/metrics"

// Perf
var (
	// PerfCryptoOperation is perf metric
	PerfCryptoOperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_crypto",
		Help:         "perf_crypto provides the sample metrics of crypto operations",
		RequiredTags: []string{"provider", "action"},
	}

	// PerfTokenSign is perf metric
	PerfTokenSign = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_token_sign",
		Help:         "perf_token_sign provides the sample metrics of JWT signing",
		RequiredTags: []string{"issuer", "alg"},
	}
)

// Metrics returns slice of metrics from this repo
var Metrics = []*metrics.Describe{
	&PerfCryptoOperation,
	&PerfTokenSign,
}
