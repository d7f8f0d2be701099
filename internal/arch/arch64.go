//go:build amd64 || arm64 || riscv64 || ppc64le || s390x || loong64

package arch

import "sync/atomic"

type (
	AtomicInt  = atomic.Int64
	AtomicUint = atomic.Uint64
)

// MaxMappings is the number of read-only file mappings a process may hold
// at once. 64-bit address spaces have room for plenty of them.
const MaxMappings = 1000

func IntToArchSize(n int) int64 {
	return int64(n)
}

func UintToArchSize(n uint) uint64 {
	return uint64(n)
}
