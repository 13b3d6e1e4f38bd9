//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package metrics

import "golang.org/x/sys/unix"

func processCPU() CPUUsage {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return CPUUsage{}
	}

	return CPUUsage{
		User:   int64(ru.Utime.Sec)*1e6 + int64(ru.Utime.Usec),
		System: int64(ru.Stime.Sec)*1e6 + int64(ru.Stime.Usec),
	}
}
