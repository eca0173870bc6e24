package ixconfig

import (
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/ixo/internal/ixerrors"
)

// LoadKDL parses an ixo.kdl document into a Config seeded with
// Default()'s values, in the shape of the teacher's parseKDL: walk the
// document's top-level nodes, dispatch by node name, and assign typed
// fields from each child node's first argument.
func LoadKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, ixerrors.WrapKind(ixerrors.KindBadArgument, "ixconfig.LoadKDL", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "storage":
			for _, cn := range n.Children {
				if nodeName(cn) == "path" {
					if s, ok := firstStringArg(cn); ok {
						cfg.Storage.Path = s
					}
				}
			}
		case "merge_policy":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "merge_factor":
					if v, ok := firstIntArg(cn); ok {
						cfg.MergePolicy.MergeFactor = v
					}
				case "max_merged_segment_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.MergePolicy.MaxMergedSegmentSize = int64(v)
					}
				case "min_segments_per_tier":
					if v, ok := firstIntArg(cn); ok {
						cfg.MergePolicy.MinSegmentsPerTier = v
					}
				}
			}
		case "analysis":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "default_analyzer":
					if s, ok := firstStringArg(cn); ok {
						cfg.Analysis.DefaultAnalyzer = s
					}
				case "stemming":
					for _, sn := range cn.Children {
						switch nodeName(sn) {
						case "enabled":
							if b, ok := firstBoolArg(sn); ok {
								cfg.Analysis.Stemming.Enabled = b
							}
						case "algorithm":
							if s, ok := firstStringArg(sn); ok {
								cfg.Analysis.Stemming.Algorithm = s
							}
						case "min_length":
							if v, ok := firstIntArg(sn); ok {
								cfg.Analysis.Stemming.MinLength = v
							}
						case "exclusions":
							cfg.Analysis.Stemming.Exclusions = collectStringArgs(sn)
						}
					}
				}
			}
		case "locks":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_retry_attempts":
					if v, ok := firstIntArg(cn); ok {
						cfg.Locks.MaxRetryAttempts = v
					}
				case "stale_timeout_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Locks.StaleTimeoutMs = v
					}
				case "retry_backoff_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Locks.RetryBackoffMs = v
					}
				}
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "fuzzy_max_expansions":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.FuzzyMaxExpansions = v
					}
				case "fuzzy_algorithm":
					if s, ok := firstStringArg(cn); ok {
						cfg.Search.FuzzyAlgorithm = s
					}
				case "default_max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.DefaultMaxResults = v
					}
				}
			}
		case "performance":
			for _, cn := range n.Children {
				if nodeName(cn) == "parallel_file_workers" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.ParallelFileWorkers = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
