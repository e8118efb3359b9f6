package licensor

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
)

// ExtractHardwareLimits reads hardware limits from the Integer features of
// doc. A missing feature means unlimited; a malformed one is an error.
func ExtractHardwareLimits(doc *Document) (HardwareLimits, error) {
	var limits HardwareLimits
	n, err := doc.Int(FeatureMaxCPUPerNode)
	switch {
	case err == nil:
		cpus, err := toPlatformInt(FeatureMaxCPUPerNode, n, math.MinInt, math.MaxInt)
		if err != nil {
			return limits, err
		}
		limits.MaxCPUPerNode = cpus
	case errors.Is(err, ErrFeatureNotFound):
	default:
		return limits, err
	}
	return limits, nil
}

// toPlatformInt narrows an Integer feature to int, rejecting values outside
// [lo, hi] instead of truncating them.
func toPlatformInt(name string, n, lo, hi int64) (int, error) {
	if n < lo || n > hi {
		return 0, &TypeCoercionError{
			Feature: name,
			Kind:    KindInteger,
			Value:   strconv.FormatInt(n, 10),
			Err:     strconv.ErrRange,
		}
	}
	return int(n), nil
}

// CheckCPU verifies that the current machine's CPU count does not exceed the limit.
// Returns nil if the limit is 0 (unlimited) or the CPU count is within bounds.
func CheckCPU(limits HardwareLimits) error {
	return checkCPUCount(limits, runtime.NumCPU())
}

func checkCPUCount(limits HardwareLimits, cpuCount int) error {
	if limits.MaxCPUPerNode <= 0 {
		return nil
	}
	if cpuCount > limits.MaxCPUPerNode {
		return fmt.Errorf("%w: machine has %d CPUs, limit is %d", ErrCPULimitExceeded, cpuCount, limits.MaxCPUPerNode)
	}
	return nil
}
