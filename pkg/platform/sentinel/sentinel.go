package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// ErrConflict reports a version or uniqueness conflict at the storage layer,
// typically a concurrent writer saving the same aggregate first.
var ErrConflict = errors.New("conflict")
