// Package domain defines the verdict types and ports of the detect service
package domain

// Reason names the cascade stage that produced a verdict
type Reason string

const (
	ReasonURL        Reason = "URL in blacklist!"
	ReasonDomain     Reason = "Domain in blacklist!"
	ReasonIP         Reason = "IP in blacklist!"
	ReasonClassifier Reason = "Checking in RNN."
	ReasonClean      Reason = "All checks are ok!"
)

// Verdict is the outcome of one check.
// Blacklist hits carry confidence 1; classifier outcomes carry the raw probability
type Verdict struct {
	IsPhishing bool    `json:"is_phishing"`
	Confidence float64 `json:"confidence_level"`
	Reason     Reason  `json:"reason"`
}

// Blacklisted is the verdict for a blacklist stage hit
func Blacklisted(r Reason) Verdict {
	return Verdict{IsPhishing: true, Confidence: 1, Reason: r}
}
