// Package server wires configuration, storage, the scoring client and the
// popup registry into the bridge's gin router.
package server
