package oracle

// Syscall channel names used by the Syscall oracle variant (C10). These
// mirror the zkVM guest's declared syscalls for preimage fetches, hint
// emission, and blob fetches.
const (
	SyscallGetPreimage = "fpvm_get_preimage"
	SyscallWriteHint   = "fpvm_write_hint"
	SyscallGetBlob     = "fpvm_get_blob"
)
