package constants

type APIStatus string

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// Cache keys
const (
	CachePrefixProviderTypes = "PROVIDER_TYPES"
	CachePrefixProviderStats = "PROVIDER_STATS"
)
