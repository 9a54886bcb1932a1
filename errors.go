package flowcore

import (
	"errors"
	"fmt"
	"strings"
)

// Graph/scheduler errors. Structural errors (spec.md §7.1) abort before
// any node runs; dynamic and node-reported errors (§7.2-3) abort the
// pass at the failing step.
var (
	ErrValidation     = errors.New("validation error")
	ErrDuplicateNode  = errors.New("duplicate node id")
	ErrCycleDetected  = errors.New("cycle detected in node dependencies")
	ErrUnboundInput   = errors.New("required input is not bound")
	ErrUnknownNode    = errors.New("node not found during execution")
	ErrUnknownType    = errors.New("node type not registered")
	ErrMixedWireModes = errors.New("edges and name-matching cannot be mixed on the same graph")
)

// wrapNodeError marks an error as attributable to a specific node, the
// way the original implementation embeds "[NODE_ERROR:<id>]" in its error
// strings rather than carrying a typed field end to end.
func wrapNodeError(nodeID string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[NODE_ERROR:%s] %w", nodeID, err)
}

// extractErrorNodeID recovers the node id from a wrapped node error, or
// from a "node '<id>'" style message, mirroring the original's
// extract_error_node_id.
func extractErrorNodeID(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if start := strings.Index(msg, "[NODE_ERROR:"); start >= 0 {
		rest := msg[start+len("[NODE_ERROR:"):]
		if end := strings.IndexByte(rest, ']'); end >= 0 {
			return rest[:end]
		}
	}
	if start := strings.Index(msg, "node '"); start >= 0 {
		rest := msg[start+len("node '"):]
		if end := strings.IndexByte(rest, '\''); end >= 0 {
			return rest[:end]
		}
	}
	return ""
}
