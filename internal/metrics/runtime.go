package metrics

import "runtime"

// MemoryUsage reports Go runtime memory statistics in bytes
type MemoryUsage struct {
	Sys        uint64 `json:"sys"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapInuse  uint64 `json:"heap_inuse"`
	HeapSys    uint64 `json:"heap_sys"`
	StackInuse uint64 `json:"stack_inuse"`
	TotalAlloc uint64 `json:"total_alloc"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

// CPUUsage is process CPU time in microseconds
type CPUUsage struct {
	User   int64 `json:"user"`
	System int64 `json:"system"`
}

// RuntimeSampler reads process resource usage
type RuntimeSampler interface {
	Memory() MemoryUsage
	CPU() CPUUsage
}

// ProcessSampler samples the current process
type ProcessSampler struct{}

func (ProcessSampler) Memory() MemoryUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemoryUsage{
		Sys:        m.Sys,
		HeapAlloc:  m.HeapAlloc,
		HeapInuse:  m.HeapInuse,
		HeapSys:    m.HeapSys,
		StackInuse: m.StackInuse,
		TotalAlloc: m.TotalAlloc,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
}

func (ProcessSampler) CPU() CPUUsage {
	return processCPU()
}
