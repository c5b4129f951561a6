package agent

// Confidence tiers derived from how much supporting knowledge was retrieved.
const (
	confidenceNoDocuments   = 0.3
	confidenceSomeDocuments = 0.6
	confidenceManyDocuments = 0.9
)

// ConfidenceFor maps retrieved-document count to a response confidence
// score. Zero documents is a valid low-confidence case, not a failure.
func ConfidenceFor(documentCount int) float32 {
	switch {
	case documentCount == 0:
		return confidenceNoDocuments
	case documentCount >= 3:
		return confidenceManyDocuments
	default:
		return confidenceSomeDocuments
	}
}
