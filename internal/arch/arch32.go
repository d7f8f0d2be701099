//go:build 386 || arm || mips || mipsle

package arch

import "sync/atomic"

type (
	AtomicInt  = atomic.Int32
	AtomicUint = atomic.Uint32
)

// MaxMappings is zero on 32-bit platforms; mapping large table files there
// exhausts the address space quickly.
const MaxMappings = 0

func IntToArchSize(n int) int32 {
	return int32(n)
}

func UintToArchSize(n uint) uint32 {
	return uint32(n)
}
