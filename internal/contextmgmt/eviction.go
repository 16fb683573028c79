// Package contextmgmt bounds the growth of the agent's message buffer
// (spec §4.5 "Eviction" and §4.6 "Summarization"): large tool results are
// offloaded to the filesystem backend, and an over-threshold buffer is
// compacted into a single summary message.
//
// The offload-to-filesystem shape is grounded on the large-result-handling
// configuration in the retrieval pack's shiyanhui-eino ADK filesystem
// middleware (adk/middlewares/filesystem/filesystem.go), adapted from a
// tool-call wrapper into a standalone buffer-maintenance step since this
// harness's tool loop already owns message-buffer mutation directly.
package contextmgmt

import (
	"context"
	"fmt"

	"github.com/deepagent-go/deepagent/internal/backend"
	"github.com/deepagent-go/deepagent/internal/util"
)

// DefaultEvictionLimit is the token threshold above which a tool result is
// written to the filesystem instead of kept inline (spec §4.5).
const DefaultEvictionLimit = 20_000

// EvictionResult is what MaybeEvict returns: either the original content
// unchanged, or a short summary plus the path it was written to.
type EvictionResult struct {
	Content  string
	Evicted  bool
	Path     string
	OrigSize int
}

// MaybeEvict writes content to the backend under
// /tool-results/<toolName>-<toolCallID>.txt and returns a short summary in
// its place when content's estimated token length exceeds limit. limit<=0
// uses DefaultEvictionLimit.
func MaybeEvict(ctx context.Context, b backend.Backend, toolName, toolCallID, content string, limit int) (EvictionResult, error) {
	if limit <= 0 {
		limit = DefaultEvictionLimit
	}
	if util.EstimateTokensForLen(len(content)) <= limit {
		return EvictionResult{Content: content}, nil
	}

	path := fmt.Sprintf("/tool-results/%s-%s.txt", toolName, toolCallID)
	res := b.Write(ctx, path, content)
	if !res.Success {
		return EvictionResult{}, fmt.Errorf("evict tool result to %s: %s", path, res.Error)
	}

	summary := fmt.Sprintf(
		"Tool result too large to inline (%d characters). Full output written to %s; use read_file to inspect it.",
		len(content), path,
	)
	return EvictionResult{Content: summary, Evicted: true, Path: path, OrigSize: len(content)}, nil
}
