// Package memory keeps thumbnail generation inside the process's memory
// budget when running in a container.
//
// Decoding a large original can allocate hundreds of megabytes. Go does
// not derive GOMEMLIMIT from the cgroup limit the way it derives
// GOMAXPROCS from the CPU quota, so [ApplyLimit] sets it from the
// memory.limit and memory.ratio configuration keys (SG_MEMORY_LIMIT and
// SG_MEMORY_RATIO in the environment). An explicit GOMEMLIMIT always takes
// precedence.
//
// # Kubernetes Configuration
//
// Pass the container limit through the Downward API:
//
//	env:
//	- name: SG_MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: SG_MEMORY_RATIO
//	  value: "0.80"
//
// # Backpressure
//
// A [Monitor] samples heap usage every few seconds. Once usage reaches the
// critical water mark it forces a GC and pauses new decodes; callers block
// in [Monitor.WaitIfPaused] until usage falls below the high water mark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	thumbs.SetBackpressure(monitor)
//
// Without a memory limit the monitor never pauses.
package memory
