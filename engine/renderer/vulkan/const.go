package vulkan

/**
 * @brief Binding of the camera uniform buffer in the global descriptor set.
 */
const VULKAN_GLOBAL_UBO_BINDING uint32 = 0

/**
 * @brief Name of the Khronos validation layer enabled in debug builds.
 */
const VULKAN_VALIDATION_LAYER = "VK_LAYER_KHRONOS_validation"

/**
 * @brief Engine name reported to the driver.
 */
const VULKAN_ENGINE_NAME = "VTableTop"
