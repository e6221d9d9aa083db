package metadata

// Opaque handles to backend objects. The zero value is the null handle; the
// backend maps every other value to the API object it created.
type (
	BufferHandle              uint64
	AllocationHandle          uint64
	ImageHandle               uint64
	FenceHandle               uint64
	SemaphoreHandle           uint64
	CommandPoolHandle         uint64
	DescriptorPoolHandle      uint64
	DescriptorSetLayoutHandle uint64
	DescriptorSetHandle       uint64
	ShaderModuleHandle        uint64
	PipelineHandle            uint64
	PipelineLayoutHandle      uint64
)

/** @brief Determines how a buffer is going to be used. */
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

/**
 * @brief A GPU buffer paired with the memory allocation backing it.
 * Both handles are released together.
 */
type AllocatedBuffer struct {
	Buffer     BufferHandle
	Allocation AllocationHandle
	/** @brief The size of the buffer in bytes. */
	Size uint64
}

func (b AllocatedBuffer) IsNull() bool {
	return b.Buffer == 0
}

/** @brief A GPU image paired with the memory allocation backing it. */
type AllocatedImage struct {
	Image      ImageHandle
	Allocation AllocationHandle
}

func (i AllocatedImage) IsNull() bool {
	return i.Image == 0
}
