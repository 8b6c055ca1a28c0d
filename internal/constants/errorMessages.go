package constants

// Ingest outcome reasons shown in import reports
const (
	ReasonDuplicateProviderID = "matches an existing flight by provider identifier"
	ReasonDuplicateDesignator = "matches an existing flight by airline, number and date"
	ReasonUnknownCode         = "unknown code"
	ReasonAmbiguousCode       = "ambiguous code"
	ReasonInvalidLeg          = "invalid leg"
	ReasonStoreFailure        = "store failure"
	ReasonCancelled           = "cancelled"
)

// Import failures that happen before a leg reaches the ingestion engine
const (
	ReasonMalformedBarcode = "malformed boarding pass"
	ReasonUnreadablePass   = "unreadable pass file"
	ReasonLookupFailed     = "flight lookup failed"
)
