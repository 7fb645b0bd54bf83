package consts

const (
	// Reconciliation sources feeding the transition engine
	SourceDispatch       = "dispatch"
	SourceCallback       = "callback"
	SourceReconciliation = "reconciliation"

	// Default config
	DefaultBatchSize            = 1000
	DefaultWorkerNumber         = 1
	DefaultIntervalInSec        = 30
	DefaultProviderTimeoutSec   = 30
	DefaultDispatchConcurrency  = 10
	DefaultStaleAfterSec        = 900
	DefaultVATRate              = "0.14"
	DefaultAgentSelectorPolicy  = "random"
	DefaultLockExpiryInSec      = 30
	DefaultOneLinkTokenTTLInSec = 3000

	SystemUser = "system"
)
