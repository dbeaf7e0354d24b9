package runtime

import (
	"github.com/hutchdb/hutch/pkg/types"
)

// normalizeStats maps a one-shot stats response onto the canonical
// snapshot. The Docker Engine dialect nests raw cgroup counters that
// need the usual delta computation; libpod reports a pre-digested entry
// under a Stats array. Missing fields degrade to zero values.
func normalizeStats(dialect types.Dialect, parsed map[string]any) *types.StatsSnapshot {
	if dialect == types.DialectPodman {
		if entries, ok := parsed["Stats"].([]any); ok && len(entries) > 0 {
			if entry, ok := entries[0].(map[string]any); ok {
				snap := &types.StatsSnapshot{
					CPUPercent:  asFloat(entry["CPU"]),
					MemoryUsage: asUint(entry["MemUsage"]),
					MemoryLimit: asUint(entry["MemLimit"]),
					NetworkRx:   asUint(entry["NetInput"]),
					NetworkTx:   asUint(entry["NetOutput"]),
				}
				if snap.MemoryLimit > 0 {
					snap.MemoryPercent = float64(snap.MemoryUsage) / float64(snap.MemoryLimit) * 100
				}
				return snap
			}
		}
		// Some podman builds answer with the Docker Engine shape; fall
		// through and read it that way.
	}

	snap := &types.StatsSnapshot{}

	cpu := asMap(parsed["cpu_stats"])
	precpu := asMap(parsed["precpu_stats"])
	cpuDelta := asFloat(asMap(cpu["cpu_usage"])["total_usage"]) - asFloat(asMap(precpu["cpu_usage"])["total_usage"])
	sysDelta := asFloat(cpu["system_cpu_usage"]) - asFloat(precpu["system_cpu_usage"])
	if cpuDelta > 0 && sysDelta > 0 {
		onlineCPUs := asFloat(cpu["online_cpus"])
		if onlineCPUs == 0 {
			onlineCPUs = 1
		}
		snap.CPUPercent = cpuDelta / sysDelta * onlineCPUs * 100
	}

	mem := asMap(parsed["memory_stats"])
	snap.MemoryUsage = asUint(mem["usage"])
	snap.MemoryLimit = asUint(mem["limit"])
	if snap.MemoryLimit > 0 {
		snap.MemoryPercent = float64(snap.MemoryUsage) / float64(snap.MemoryLimit) * 100
	}

	for _, v := range asMap(parsed["networks"]) {
		iface := asMap(v)
		snap.NetworkRx += asUint(iface["rx_bytes"])
		snap.NetworkTx += asUint(iface["tx_bytes"])
	}

	return snap
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func asUint(v any) uint64 {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0
	}
	return uint64(f)
}
