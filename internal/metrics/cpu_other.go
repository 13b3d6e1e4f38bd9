//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package metrics

func processCPU() CPUUsage {
	return CPUUsage{}
}
